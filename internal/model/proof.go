// internal/model/proof.go
package model

import "time"

// Proof status values. A proof is reviewed exactly once; status and
// review result are append-only after that point.
const (
    ProofStatusPending      = "pending"
    ProofStatusAIApproved   = "ai_approved"
    ProofStatusAIRejected   = "ai_rejected"
    ProofStatusManualReview = "manual_review"
)

// Proof is an evidentiary submission (invoice/receipt image plus a
// claimed amount) justifying release of a milestone's funds.
type Proof struct {
    ID            string          `json:"id"`
    CampaignID    string          `json:"campaignId"`
    MilestoneID   string          `json:"milestoneId"`
    ImageURL      string          `json:"imageUrl"`
    ClaimedAmount float64         `json:"claimedAmount"`
    Description   string          `json:"description"`
    Status        string          `json:"status"`
    AIReview      *AIReviewResult `json:"aiReview,omitempty"`
    SubmittedAt   time.Time       `json:"submittedAt"`
    ReviewedAt    *time.Time      `json:"reviewedAt,omitempty"`
    ProofRef      string          `json:"proofRef,omitempty"`
    SettlementTx  string          `json:"settlementTx,omitempty"`
}

// AIReviewResult verdict statuses.
const (
    ReviewStatusApproved     = "approved"
    ReviewStatusRejected     = "rejected"
    ReviewStatusManualReview = "manual_review"
)

// AIReviewResult is the normalized verdict produced from the multimodal
// model's analysis of a proof. Immutable once attached to a proof.
type AIReviewResult struct {
    Status     string          `json:"status"`
    Confidence float64         `json:"confidence"`
    Extracted  ExtractedFields `json:"extracted"`
    Checks     ReviewChecks    `json:"checks"`
    Reason     string          `json:"reason"`
}

// ExtractedFields are the values the model reads off the invoice image.
type ExtractedFields struct {
    Amount    float64 `json:"amount"`
    Date      string  `json:"date"`
    Recipient string  `json:"recipient"`
    Purpose   string  `json:"purpose"`
}

// ReviewChecks are the corroborating signals behind a verdict.
// AmountMatch is always recomputed locally, never trusted from the model.
type ReviewChecks struct {
    AmountMatch       bool    `json:"amountMatch"`
    DateValid         bool    `json:"dateValid"`
    FormatValid       bool    `json:"formatValid"`
    AuthenticityScore float64 `json:"authenticityScore"`
    PurposeMatch      bool    `json:"purposeMatch"`
}

// ProofStatusForReview maps a verdict status to the proof status it implies.
func ProofStatusForReview(reviewStatus string) string {
    switch reviewStatus {
    case ReviewStatusApproved:
        return ProofStatusAIApproved
    case ReviewStatusRejected:
        return ProofStatusAIRejected
    default:
        return ProofStatusManualReview
    }
}
