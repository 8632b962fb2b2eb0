// internal/service/campaign_service.go
package service

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "log"
    "math"
    "time"

    "github.com/google/uuid"

    appErrors "github.com/givechain/givechain-backend/internal/errors"
    "github.com/givechain/givechain-backend/internal/ledger"
    "github.com/givechain/givechain-backend/internal/model"
    "github.com/givechain/givechain-backend/internal/repository"
    "github.com/givechain/givechain-backend/internal/review"
    "github.com/givechain/givechain-backend/internal/seed"
    "github.com/givechain/givechain-backend/internal/upload"
)

// milestoneSumTolerance is how far milestone amounts may drift from the
// campaign target before creation is rejected.
const milestoneSumTolerance = 0.01

// Reviewer is the slice of the review engine the service depends on.
type Reviewer interface {
    Review(ctx context.Context, img upload.Image, claimedAmount float64, purpose string) review.Outcome
}

type CampaignService struct {
    Repo      repository.CampaignRepositoryInterface
    Donations repository.DonationRepositoryInterface
    Reviewer  Reviewer
    Chain     ledger.Ledger
}

// CreateCampaignRequest is the creation payload.
type CreateCampaignRequest struct {
    Title           string             `json:"title"`
    Description     string             `json:"description"`
    Beneficiary     string             `json:"beneficiary"`
    BeneficiaryName string             `json:"beneficiaryName"`
    TargetAmount    float64            `json:"targetAmount"`
    Category        string             `json:"category"`
    Deadline        string             `json:"deadline"`
    Milestones      []MilestoneRequest `json:"milestones"`
}

type MilestoneRequest struct {
    Title         string  `json:"title"`
    TargetAmount  float64 `json:"targetAmount"`
    ProofRequired bool    `json:"proofRequired"`
}

// ListCampaigns returns the stored collection, or the seed dataset when
// the store is empty.
func (s *CampaignService) ListCampaigns() ([]model.Campaign, error) {
    campaigns, err := s.Repo.ReadAll()
    if err != nil {
        return nil, err
    }
    if len(campaigns) == 0 {
        return seed.Campaigns(), nil
    }
    return campaigns, nil
}

// GetCampaign fetches a campaign by ID.
func (s *CampaignService) GetCampaign(id string) (*model.Campaign, error) {
    return s.Repo.GetByID(id)
}

// CreateCampaign validates the request and persists the new campaign.
func (s *CampaignService) CreateCampaign(req CreateCampaignRequest) (*model.Campaign, error) {
    if req.Title == "" {
        return nil, appErrors.NewValidation("title is required")
    }
    if req.Description == "" {
        return nil, appErrors.NewValidation("description is required")
    }
    if req.Beneficiary == "" {
        return nil, appErrors.NewValidation("beneficiary is required")
    }
    if req.TargetAmount <= 0 {
        return nil, appErrors.NewValidation("targetAmount must be positive, got %.2f", req.TargetAmount)
    }
    if len(req.Milestones) == 0 {
        return nil, appErrors.NewValidation("at least one milestone is required")
    }

    deadline, err := time.Parse(time.RFC3339, req.Deadline)
    if err != nil {
        return nil, appErrors.NewValidation("deadline must be RFC3339, got %q", req.Deadline)
    }

    var sum float64
    milestones := make([]model.Milestone, 0, len(req.Milestones))
    for i, m := range req.Milestones {
        if m.Title == "" {
            return nil, appErrors.NewValidation("milestone %d: title is required", i+1)
        }
        if m.TargetAmount <= 0 {
            return nil, appErrors.NewValidation("milestone %d: targetAmount must be positive", i+1)
        }
        sum += m.TargetAmount
        milestones = append(milestones, model.Milestone{
            ID:            uuid.NewString(),
            Title:         m.Title,
            TargetAmount:  m.TargetAmount,
            Status:        model.MilestoneStatusPending,
            ProofRequired: m.ProofRequired,
        })
    }

    if math.Abs(sum-req.TargetAmount) > milestoneSumTolerance {
        return nil, appErrors.NewValidation(
            "milestone amounts total %.2f but campaign target is %.2f", sum, req.TargetAmount)
    }

    campaign := &model.Campaign{
        ID:              uuid.NewString(),
        Title:           req.Title,
        Description:     req.Description,
        Beneficiary:     req.Beneficiary,
        BeneficiaryName: req.BeneficiaryName,
        TargetAmount:    req.TargetAmount,
        Category:        req.Category,
        CreatedAt:       time.Now().UTC(),
        Deadline:        deadline,
        Status:          model.CampaignStatusActive,
        Milestones:      milestones,
        Proofs:          []model.Proof{},
    }

    if err := s.Repo.Append(campaign); err != nil {
        return nil, err
    }
    return campaign, nil
}

// SubmitProof runs the AI review for a proof image and attaches the
// verdict to the campaign. Review happens exactly once per proof.
func (s *CampaignService) SubmitProof(ctx context.Context, campaignID, milestoneID string, img upload.Image, claimedAmount float64, description string) (*model.Proof, error) {
    if claimedAmount <= 0 {
        return nil, appErrors.NewValidation("claimed amount must be positive, got %.2f", claimedAmount)
    }

    campaign, err := s.Repo.GetByID(campaignID)
    if err != nil {
        return nil, err
    }
    if campaign.Milestone(milestoneID) == nil {
        return nil, appErrors.NewMilestoneNotFound(campaignID, milestoneID)
    }

    purpose := campaign.Description
    if description != "" {
        purpose = description
    }

    outcome := s.Reviewer.Review(ctx, img, claimedAmount, purpose)
    now := time.Now().UTC()

    proof := model.Proof{
        ID:            uuid.NewString(),
        CampaignID:    campaignID,
        MilestoneID:   milestoneID,
        ImageURL:      outcome.ImageURL,
        ClaimedAmount: claimedAmount,
        Description:   description,
        Status:        model.ProofStatusForReview(outcome.Result.Status),
        AIReview:      &outcome.Result,
        SubmittedAt:   now,
        ReviewedAt:    &now,
    }

    // An approved verdict is reported to the ledger, which issues the
    // proof reference the withdrawal and reconciliation paths use.
    if s.Chain != nil && proof.Status == model.ProofStatusAIApproved {
        hash := sha256.Sum256(img.Data)
        ref, err := s.Chain.SubmitProof(ctx, campaignID, milestoneID,
            hex.EncodeToString(hash[:]), claimedAmount, outcome.ImageURL)
        if err != nil {
            log.Println("⚠️ failed to register proof with ledger:", err)
        } else {
            proof.ProofRef = ref
        }
    }

    proofs := append(campaign.Proofs, proof)
    if _, err := s.Repo.Update(campaignID, repository.CampaignPatch{Proofs: proofs}); err != nil {
        // The verdict still reaches the caller; only persistence failed.
        log.Println("⚠️ failed to persist proof verdict:", err)
        return &proof, err
    }
    return &proof, nil
}

// RecordDonation appends a donation and updates the campaign aggregates.
func (s *CampaignService) RecordDonation(campaignID, donor string, amount float64, tx string) (*model.Donation, error) {
    if amount <= 0 {
        return nil, appErrors.NewValidation("donation amount must be positive, got %.2f", amount)
    }
    if donor == "" {
        return nil, appErrors.NewValidation("donor address is required")
    }

    campaign, err := s.Repo.GetByID(campaignID)
    if err != nil {
        return nil, err
    }

    donation := &model.Donation{
        ID:         uuid.NewString(),
        CampaignID: campaignID,
        Donor:      donor,
        Amount:     amount,
        Tx:         tx,
        Timestamp:  time.Now().UTC(),
    }

    if err := s.Donations.Append(donation); err != nil {
        return nil, err
    }

    raised := campaign.RaisedAmount + amount
    donors := campaign.DonorCount + 1
    if _, err := s.Repo.Update(campaignID, repository.CampaignPatch{
        RaisedAmount: &raised,
        DonorCount:   &donors,
    }); err != nil {
        return nil, err
    }
    return donation, nil
}
