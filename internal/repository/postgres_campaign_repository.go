package repository

import (
    "database/sql"
    "encoding/json"
    "fmt"

    appErrors "github.com/givechain/givechain-backend/internal/errors"
    "github.com/givechain/givechain-backend/internal/model"
)

// PostgresCampaignRepository stores one jsonb row per campaign, so every
// mutation touches a single record atomically instead of rewriting the
// whole collection. This is the hardened variant of the file store.
type PostgresCampaignRepository struct {
    DB *sql.DB
}

// EnsureSchema creates the campaigns table if it does not exist.
func (r *PostgresCampaignRepository) EnsureSchema() error {
    _, err := r.DB.Exec(`
        CREATE TABLE IF NOT EXISTS campaigns (
            id TEXT PRIMARY KEY,
            doc JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `)
    return err
}

func (r *PostgresCampaignRepository) ReadAll() ([]model.Campaign, error) {
    rows, err := r.DB.Query(`SELECT doc FROM campaigns ORDER BY created_at DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    campaigns := []model.Campaign{}
    for rows.Next() {
        var doc []byte
        if err := rows.Scan(&doc); err != nil {
            return nil, err
        }
        var c model.Campaign
        if err := json.Unmarshal(doc, &c); err != nil {
            return nil, fmt.Errorf("failed to decode campaign row: %w", err)
        }
        campaigns = append(campaigns, c)
    }
    return campaigns, rows.Err()
}

func (r *PostgresCampaignRepository) GetByID(id string) (*model.Campaign, error) {
    var doc []byte
    err := r.DB.QueryRow(`SELECT doc FROM campaigns WHERE id=$1`, id).Scan(&doc)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }
    var c model.Campaign
    if err := json.Unmarshal(doc, &c); err != nil {
        return nil, fmt.Errorf("failed to decode campaign row: %w", err)
    }
    return &c, nil
}

func (r *PostgresCampaignRepository) Append(c *model.Campaign) error {
    doc, err := json.Marshal(c)
    if err != nil {
        return fmt.Errorf("failed to encode campaign: %w", err)
    }
    _, err = r.DB.Exec(
        `INSERT INTO campaigns (id, doc, created_at) VALUES ($1, $2, $3)`,
        c.ID, doc, c.CreatedAt,
    )
    return err
}

// Update applies the patch inside a transaction with the row locked, so
// concurrent writers to the same campaign serialize per record.
func (r *PostgresCampaignRepository) Update(id string, patch CampaignPatch) (*model.Campaign, error) {
    tx, err := r.DB.Begin()
    if err != nil {
        return nil, err
    }
    defer tx.Rollback()

    var doc []byte
    err = tx.QueryRow(`SELECT doc FROM campaigns WHERE id=$1 FOR UPDATE`, id).Scan(&doc)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }

    var c model.Campaign
    if err := json.Unmarshal(doc, &c); err != nil {
        return nil, fmt.Errorf("failed to decode campaign row: %w", err)
    }
    applyPatch(&c, patch)

    updated, err := json.Marshal(&c)
    if err != nil {
        return nil, fmt.Errorf("failed to encode campaign: %w", err)
    }
    if _, err := tx.Exec(`UPDATE campaigns SET doc=$1, updated_at=NOW() WHERE id=$2`, updated, id); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    return &c, nil
}

func (r *PostgresCampaignRepository) Remove(id string) (bool, error) {
    res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

var _ CampaignRepositoryInterface = (*PostgresCampaignRepository)(nil)
