package repository

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "sync"

    "github.com/givechain/givechain-backend/internal/model"
)

// DonationRepositoryInterface holds the append-only donation log.
type DonationRepositoryInterface interface {
    ListByCampaign(campaignID string) ([]model.Donation, error)
    Append(d *model.Donation) error
}

// FileDonationRepository appends donations to a single JSON document,
// mirroring the campaign file store.
type FileDonationRepository struct {
    Path string
    mu   sync.Mutex
}

func NewFileDonationRepository(path string) *FileDonationRepository {
    return &FileDonationRepository{Path: path}
}

func (r *FileDonationRepository) readAll() ([]model.Donation, error) {
    data, err := os.ReadFile(r.Path)
    if err != nil {
        if os.IsNotExist(err) {
            return []model.Donation{}, nil
        }
        return nil, fmt.Errorf("failed to read donation store: %w", err)
    }
    donations := []model.Donation{}
    if len(data) == 0 {
        return donations, nil
    }
    if err := json.Unmarshal(data, &donations); err != nil {
        return nil, fmt.Errorf("failed to parse donation store: %w", err)
    }
    return donations, nil
}

func (r *FileDonationRepository) ListByCampaign(campaignID string) ([]model.Donation, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    all, err := r.readAll()
    if err != nil {
        return nil, err
    }
    matched := []model.Donation{}
    for _, d := range all {
        if d.CampaignID == campaignID {
            matched = append(matched, d)
        }
    }
    return matched, nil
}

func (r *FileDonationRepository) Append(d *model.Donation) error {
    r.mu.Lock()
    defer r.mu.Unlock()

    all, err := r.readAll()
    if err != nil {
        return err
    }
    all = append(all, *d)

    data, err := json.MarshalIndent(all, "", "  ")
    if err != nil {
        return fmt.Errorf("failed to encode donation store: %w", err)
    }
    if dir := filepath.Dir(r.Path); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("failed to create store directory: %w", err)
        }
    }
    return os.WriteFile(r.Path, data, 0o644)
}

var _ DonationRepositoryInterface = (*FileDonationRepository)(nil)
