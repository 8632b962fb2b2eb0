// internal/model/milestone.go
package model

// Milestone status values. Status is derived from the released/target
// ratio, never set directly.
const (
    MilestoneStatusPending    = "pending"
    MilestoneStatusInProgress = "in_progress"
    MilestoneStatusCompleted  = "completed"
)

// Milestone is a tranche of a campaign's target amount, released only
// once the disbursement gate allows it.
type Milestone struct {
    ID             string  `json:"id"`
    Title          string  `json:"title"`
    TargetAmount   float64 `json:"targetAmount"`
    ReleasedAmount float64 `json:"releasedAmount"`
    Status         string  `json:"status"`
    ProofRequired  bool    `json:"proofRequired"`
}

// DerivedStatus computes the status from the released/target ratio:
// pending while nothing is released, completed once the full target is
// released, in_progress in between.
func (m *Milestone) DerivedStatus() string {
    switch {
    case m.ReleasedAmount <= 0:
        return MilestoneStatusPending
    case m.ReleasedAmount >= m.TargetAmount:
        return MilestoneStatusCompleted
    default:
        return MilestoneStatusInProgress
    }
}
