// internal/disbursement/gate.go
package disbursement

import (
	"fmt"
	"log"
	"sync"

	appErrors "github.com/givechain/givechain-backend/internal/errors"
	"github.com/givechain/givechain-backend/internal/model"
	"github.com/givechain/givechain-backend/internal/repository"
)

// RefusalReason classifies why a withdrawal was refused.
type RefusalReason string

const (
	ReasonProofMissing     RefusalReason = "proof_missing"
	ReasonProofNotApproved RefusalReason = "proof_not_approved"
	ReasonProofSettled     RefusalReason = "proof_already_settled"
	ReasonExceedsTarget    RefusalReason = "amount_exceeds_target"
)

// Refusal is a typed, non-fatal refusal distinct from a system error.
// Callers render it as a user-actionable state, not a crash.
type Refusal struct {
	Reason RefusalReason
	Detail string
}

func (r *Refusal) Error() string {
	return fmt.Sprintf("withdrawal refused (%s): %s", r.Reason, r.Detail)
}

func refuse(reason RefusalReason, format string, args ...any) error {
	return &Refusal{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Result reports a successful disbursement.
type Result struct {
	Milestone     model.Milestone `json:"milestone"`
	ProofID       string          `json:"proofId,omitempty"`
	ProofRef      string          `json:"proofRef,omitempty"`
	Amount        float64         `json:"amount"`
	SettlementRef string          `json:"settlementRef"`
}

// SettleFunc executes the on-chain transfer for the ledger proof
// reference backing the withdrawal (empty for proof-exempt milestones)
// and returns the settlement transaction reference.
type SettleFunc func(proofRef string) (string, error)

// SettlementError marks a failed settle step. It is only returned after
// every precondition passed, so no transfer ever precedes a refusal.
type SettlementError struct {
	Err error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement failed: %v", e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// Gate decides whether a withdrawal against a milestone may proceed and
// mutates the off-chain mirror when it does. Review happens once at
// submission time; the gate only consumes stored verdicts.
type Gate struct {
	Repo repository.CampaignRepositoryInterface

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGate(repo repository.CampaignRepositoryInterface) *Gate {
	return &Gate{Repo: repo, locks: make(map[string]*sync.Mutex)}
}

// lockFor serializes withdrawal attempts per campaign so the same
// milestone amount cannot be released twice by racing requests.
func (g *Gate) lockFor(campaignID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locks == nil {
		g.locks = make(map[string]*sync.Mutex)
	}
	l, ok := g.locks[campaignID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[campaignID] = l
	}
	return l
}

// Withdraw attempts to release amount from the milestone. The transfer
// itself runs through settle, invoked only after every precondition
// holds, so a refusal never leaves an executed transfer behind. The
// returned settlement reference is recorded against the consumed proof
// so an approved proof backs at most one withdrawal.
func (g *Gate) Withdraw(campaignID, milestoneID, proofID string, amount float64, settle SettleFunc) (*Result, error) {
	if amount <= 0 {
		return nil, appErrors.NewValidation("withdrawal amount must be positive, got %.2f", amount)
	}

	l := g.lockFor(campaignID)
	l.Lock()
	defer l.Unlock()

	campaign, err := g.Repo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	ms := campaign.Milestone(milestoneID)
	if ms == nil {
		return nil, appErrors.NewMilestoneNotFound(campaignID, milestoneID)
	}

	var proof *model.Proof
	if ms.ProofRequired {
		proof, err = g.eligibleProof(campaign, milestoneID, proofID)
		if err != nil {
			return nil, err
		}
	}

	if ms.ReleasedAmount+amount > ms.TargetAmount+0.000001 {
		return nil, refuse(ReasonExceedsTarget,
			"releasing %.2f would push milestone %s to %.2f, above its target %.2f",
			amount, milestoneID, ms.ReleasedAmount+amount, ms.TargetAmount)
	}

	proofRef := ""
	if proof != nil {
		proofRef = proof.ProofRef
	}
	settlementRef, err := settle(proofRef)
	if err != nil {
		return nil, &SettlementError{Err: err}
	}

	ms.ReleasedAmount += amount
	ms.Status = ms.DerivedStatus()
	usedProofID := ""
	if proof != nil {
		proof.SettlementTx = settlementRef
		usedProofID = proof.ID
	}

	if _, err := g.Repo.Update(campaignID, repository.CampaignPatch{
		Milestones: campaign.Milestones,
		Proofs:     campaign.Proofs,
	}); err != nil {
		return nil, err
	}

	log.Printf("💸 released %.2f for milestone %s (campaign %s), status now %s", amount, milestoneID, campaignID, ms.Status)

	return &Result{
		Milestone:     *ms,
		ProofID:       usedProofID,
		ProofRef:      proofRef,
		Amount:        amount,
		SettlementRef: settlementRef,
	}, nil
}

// eligibleProof locates an ai_approved, unsettled proof for the
// milestone. When proofID is given, only that proof is considered.
func (g *Gate) eligibleProof(campaign *model.Campaign, milestoneID, proofID string) (*model.Proof, error) {
	var candidates []*model.Proof
	for i := range campaign.Proofs {
		p := &campaign.Proofs[i]
		if p.MilestoneID != milestoneID {
			continue
		}
		if proofID != "" && p.ID != proofID {
			continue
		}
		candidates = append(candidates, p)
	}

	if len(candidates) == 0 {
		return nil, refuse(ReasonProofMissing, "milestone %s requires a spending proof and none was found", milestoneID)
	}

	sawUnapproved := false
	for _, p := range candidates {
		if p.Status != model.ProofStatusAIApproved {
			sawUnapproved = true
			continue
		}
		if p.SettlementTx != "" {
			continue
		}
		return p, nil
	}

	for _, p := range candidates {
		if p.Status == model.ProofStatusAIApproved && p.SettlementTx != "" {
			return nil, refuse(ReasonProofSettled, "proof %s already backed a withdrawal (%s)", p.ID, p.SettlementTx)
		}
	}
	if sawUnapproved {
		return nil, refuse(ReasonProofNotApproved, "no approved proof for milestone %s", milestoneID)
	}
	return nil, refuse(ReasonProofMissing, "milestone %s requires a spending proof and none was found", milestoneID)
}
