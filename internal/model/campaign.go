// internal/model/campaign.go
package model

import "time"

// Campaign status values.
const (
    CampaignStatusActive    = "active"
    CampaignStatusCompleted = "completed"
    CampaignStatusExpired   = "expired"
)

// Campaign categories shown in the UI.
const (
    CategoryMedical     = "medical"
    CategoryEducation   = "education"
    CategoryDisaster    = "disaster"
    CategoryEnvironment = "environment"
    CategoryCommunity   = "community"
)

// Campaign is a fundraising effort. Milestones and proofs are embedded
// inline; neither exists independent of its campaign.
type Campaign struct {
    ID              string      `json:"id"`
    Title           string      `json:"title"`
    Description     string      `json:"description"`
    Beneficiary     string      `json:"beneficiary"`
    BeneficiaryName string      `json:"beneficiaryName"`
    TargetAmount    float64     `json:"targetAmount"`
    RaisedAmount    float64     `json:"raisedAmount"`
    DonorCount      int         `json:"donorCount"`
    Category        string      `json:"category"`
    CreatedAt       time.Time   `json:"createdAt"`
    Deadline        time.Time   `json:"deadline"`
    Status          string      `json:"status"`
    Milestones      []Milestone `json:"milestones"`
    Proofs          []Proof     `json:"proofs"`
}

// Milestone returns the embedded milestone with the given id, or nil.
func (c *Campaign) Milestone(id string) *Milestone {
    for i := range c.Milestones {
        if c.Milestones[i].ID == id {
            return &c.Milestones[i]
        }
    }
    return nil
}

// Proof returns the embedded proof with the given id, or nil.
func (c *Campaign) Proof(id string) *Proof {
    for i := range c.Proofs {
        if c.Proofs[i].ID == id {
            return &c.Proofs[i]
        }
    }
    return nil
}
