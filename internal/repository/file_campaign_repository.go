package repository

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "sync"

    appErrors "github.com/givechain/givechain-backend/internal/errors"
    "github.com/givechain/givechain-backend/internal/model"
)

// FileCampaignRepository persists the whole collection as a single JSON
// document, read and rewritten in its entirety on every mutation.
//
// The mutex serializes writers within this process only. Two handles on
// the same path (or two processes) race read-modify-write and the later
// writer wins, silently discarding interleaved updates. Suitable for
// demo/test use; production deployments use PostgresCampaignRepository.
type FileCampaignRepository struct {
    Path string
    mu   sync.Mutex
}

func NewFileCampaignRepository(path string) *FileCampaignRepository {
    return &FileCampaignRepository{Path: path}
}

func (r *FileCampaignRepository) ReadAll() ([]model.Campaign, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.readAll()
}

func (r *FileCampaignRepository) readAll() ([]model.Campaign, error) {
    data, err := os.ReadFile(r.Path)
    if err != nil {
        if os.IsNotExist(err) {
            return []model.Campaign{}, nil
        }
        return nil, fmt.Errorf("failed to read campaign store: %w", err)
    }

    campaigns := []model.Campaign{}
    if len(data) == 0 {
        return campaigns, nil
    }
    if err := json.Unmarshal(data, &campaigns); err != nil {
        return nil, fmt.Errorf("failed to parse campaign store: %w", err)
    }
    return campaigns, nil
}

func (r *FileCampaignRepository) writeAll(campaigns []model.Campaign) error {
    data, err := json.MarshalIndent(campaigns, "", "  ")
    if err != nil {
        return fmt.Errorf("failed to encode campaign store: %w", err)
    }
    if dir := filepath.Dir(r.Path); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("failed to create store directory: %w", err)
        }
    }
    if err := os.WriteFile(r.Path, data, 0o644); err != nil {
        return fmt.Errorf("failed to write campaign store: %w", err)
    }
    return nil
}

func (r *FileCampaignRepository) GetByID(id string) (*model.Campaign, error) {
    campaigns, err := r.ReadAll()
    if err != nil {
        return nil, err
    }
    for i := range campaigns {
        if campaigns[i].ID == id {
            c := campaigns[i]
            return &c, nil
        }
    }
    return nil, appErrors.NewCampaignNotFound(id)
}

func (r *FileCampaignRepository) Append(c *model.Campaign) error {
    r.mu.Lock()
    defer r.mu.Unlock()

    campaigns, err := r.readAll()
    if err != nil {
        return err
    }
    // Most-recent-first ordering.
    campaigns = append([]model.Campaign{*c}, campaigns...)
    return r.writeAll(campaigns)
}

func (r *FileCampaignRepository) Update(id string, patch CampaignPatch) (*model.Campaign, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    campaigns, err := r.readAll()
    if err != nil {
        return nil, err
    }
    for i := range campaigns {
        if campaigns[i].ID != id {
            continue
        }
        applyPatch(&campaigns[i], patch)
        if err := r.writeAll(campaigns); err != nil {
            return nil, err
        }
        c := campaigns[i]
        return &c, nil
    }
    return nil, appErrors.NewCampaignNotFound(id)
}

func (r *FileCampaignRepository) Remove(id string) (bool, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    campaigns, err := r.readAll()
    if err != nil {
        return false, err
    }
    kept := campaigns[:0]
    removed := false
    for _, c := range campaigns {
        if c.ID == id {
            removed = true
            continue
        }
        kept = append(kept, c)
    }
    if !removed {
        return false, nil
    }
    return true, r.writeAll(kept)
}

var _ CampaignRepositoryInterface = (*FileCampaignRepository)(nil)
