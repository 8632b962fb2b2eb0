// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
    CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

// ErrMilestoneNotFound is returned when a campaign exists but the
// addressed milestone does not.
type ErrMilestoneNotFound struct {
    CampaignID  string
    MilestoneID string
}

func (e *ErrMilestoneNotFound) Error() string {
    return fmt.Sprintf("milestone %s not found in campaign %s", e.MilestoneID, e.CampaignID)
}

func NewMilestoneNotFound(campaignID, milestoneID string) error {
    return &ErrMilestoneNotFound{CampaignID: campaignID, MilestoneID: milestoneID}
}

// ValidationError marks a caller mistake (missing field, milestone totals
// mismatch). Controllers map it to 400 instead of 500.
type ValidationError struct {
    Message string
}

func (e *ValidationError) Error() string {
    return e.Message
}

func NewValidation(format string, args ...any) error {
    return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
