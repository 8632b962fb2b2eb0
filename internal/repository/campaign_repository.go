package repository

import (
    "github.com/givechain/givechain-backend/internal/model"
)

// CampaignRepositoryInterface owns the canonical campaign collection,
// each campaign embedding its milestones and proofs.
type CampaignRepositoryInterface interface {
    // ReadAll returns every campaign, most recent first. A store with no
    // backing data returns an empty slice, not an error.
    ReadAll() ([]model.Campaign, error)
    GetByID(id string) (*model.Campaign, error)
    // Append inserts at the front of the collection.
    Append(c *model.Campaign) error
    // Update applies the non-nil fields of the patch to the campaign with
    // the given id and returns the updated record. A missing id yields
    // *appErrors.ErrCampaignNotFound, and the collection is left unchanged.
    Update(id string, patch CampaignPatch) (*model.Campaign, error)
    // Remove deletes by id, reporting whether anything was removed.
    Remove(id string) (bool, error)
}

// CampaignPatch is a partial update. Nil fields are left untouched;
// Milestones/Proofs replace the embedded lists wholesale when non-nil.
type CampaignPatch struct {
    Title        *string
    Description  *string
    RaisedAmount *float64
    DonorCount   *int
    Status       *string
    Milestones   []model.Milestone
    Proofs       []model.Proof
}

func applyPatch(c *model.Campaign, patch CampaignPatch) {
    if patch.Title != nil {
        c.Title = *patch.Title
    }
    if patch.Description != nil {
        c.Description = *patch.Description
    }
    if patch.RaisedAmount != nil {
        c.RaisedAmount = *patch.RaisedAmount
    }
    if patch.DonorCount != nil {
        c.DonorCount = *patch.DonorCount
    }
    if patch.Status != nil {
        c.Status = *patch.Status
    }
    if patch.Milestones != nil {
        c.Milestones = patch.Milestones
    }
    if patch.Proofs != nil {
        c.Proofs = patch.Proofs
    }
}
