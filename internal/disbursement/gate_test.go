package disbursement

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/givechain/givechain-backend/internal/errors"
	"github.com/givechain/givechain-backend/internal/model"
	"github.com/givechain/givechain-backend/internal/repository"
)

// memRepo is a minimal in-memory campaign repository.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
}

func newMemRepo(campaigns ...*model.Campaign) *memRepo {
	m := &memRepo{campaigns: map[string]*model.Campaign{}}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *memRepo) ReadAll() ([]model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Campaign{}
	for _, c := range m.campaigns {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memRepo) GetByID(id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	copied.Milestones = append([]model.Milestone{}, c.Milestones...)
	copied.Proofs = append([]model.Proof{}, c.Proofs...)
	return &copied, nil
}

func (m *memRepo) Append(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	return nil
}

func (m *memRepo) Update(id string, patch repository.CampaignPatch) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	if patch.Milestones != nil {
		c.Milestones = patch.Milestones
	}
	if patch.Proofs != nil {
		c.Proofs = patch.Proofs
	}
	if patch.RaisedAmount != nil {
		c.RaisedAmount = *patch.RaisedAmount
	}
	if patch.DonorCount != nil {
		c.DonorCount = *patch.DonorCount
	}
	copied := *c
	return &copied, nil
}

func (m *memRepo) Remove(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.campaigns[id]
	delete(m.campaigns, id)
	return ok, nil
}

func gatedCampaign() *model.Campaign {
	return &model.Campaign{
		ID:           "c1",
		TargetAmount: 10000,
		Status:       model.CampaignStatusActive,
		Milestones: []model.Milestone{
			{ID: "m1", TargetAmount: 6000, Status: model.MilestoneStatusPending, ProofRequired: true},
			{ID: "m2", TargetAmount: 4000, Status: model.MilestoneStatusPending, ProofRequired: false},
		},
		Proofs: []model.Proof{},
	}
}

func approvedProof(id, milestoneID string) model.Proof {
	return model.Proof{
		ID:          id,
		CampaignID:  "c1",
		MilestoneID: milestoneID,
		Status:      model.ProofStatusAIApproved,
		ProofRef:    "ref-" + id,
	}
}

// settleWith returns a settle func yielding a fixed settlement ref.
func settleWith(ref string) SettleFunc {
	return func(string) (string, error) { return ref, nil }
}

func TestWithdrawRefusedWithoutProof(t *testing.T) {
	repo := newMemRepo(gatedCampaign())
	g := NewGate(repo)

	_, err := g.Withdraw("c1", "m1", "", 1000, settleWith("tx-1"))
	var ref *Refusal
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, ReasonProofMissing, ref.Reason)

	c, _ := repo.GetByID("c1")
	assert.Equal(t, 0.0, c.Milestones[0].ReleasedAmount)
}

func TestWithdrawRefusedWithUnapprovedProof(t *testing.T) {
	c := gatedCampaign()
	p := approvedProof("p1", "m1")
	p.Status = model.ProofStatusManualReview
	c.Proofs = append(c.Proofs, p)
	g := NewGate(newMemRepo(c))

	_, err := g.Withdraw("c1", "m1", "", 1000, settleWith("tx-1"))
	var ref *Refusal
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, ReasonProofNotApproved, ref.Reason)
}

func TestWithdrawWithApprovedProof(t *testing.T) {
	c := gatedCampaign()
	c.Proofs = append(c.Proofs, approvedProof("p1", "m1"))
	repo := newMemRepo(c)
	g := NewGate(repo)

	res, err := g.Withdraw("c1", "m1", "p1", 2500, settleWith("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, 2500.0, res.Milestone.ReleasedAmount)
	assert.Equal(t, model.MilestoneStatusInProgress, res.Milestone.Status)
	assert.Equal(t, "p1", res.ProofID)

	stored, _ := repo.GetByID("c1")
	assert.Equal(t, "tx-1", stored.Proofs[0].SettlementTx)
}

func TestWithdrawCompletesMilestoneAtTarget(t *testing.T) {
	c := gatedCampaign()
	c.Proofs = append(c.Proofs, approvedProof("p1", "m1"))
	g := NewGate(newMemRepo(c))

	res, err := g.Withdraw("c1", "m1", "p1", 6000, settleWith("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, res.Milestone.Status)
}

func TestWithdrawRefusedWhenAmountExceedsTarget(t *testing.T) {
	c := gatedCampaign()
	c.Milestones[0].ReleasedAmount = 5000
	c.Milestones[0].Status = model.MilestoneStatusInProgress
	c.Proofs = append(c.Proofs, approvedProof("p1", "m1"))
	repo := newMemRepo(c)
	g := NewGate(repo)

	_, err := g.Withdraw("c1", "m1", "p1", 1500, settleWith("tx-1"))
	var ref *Refusal
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, ReasonExceedsTarget, ref.Reason)

	stored, _ := repo.GetByID("c1")
	assert.Equal(t, 5000.0, stored.Milestones[0].ReleasedAmount)
	assert.Empty(t, stored.Proofs[0].SettlementTx)
}

func TestWithdrawWithoutProofRequirement(t *testing.T) {
	g := NewGate(newMemRepo(gatedCampaign()))

	res, err := g.Withdraw("c1", "m2", "", 4000, settleWith("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, res.Milestone.Status)
	assert.Empty(t, res.ProofID)
}

func TestSettledProofCannotBackSecondWithdrawal(t *testing.T) {
	c := gatedCampaign()
	c.Proofs = append(c.Proofs, approvedProof("p1", "m1"))
	g := NewGate(newMemRepo(c))

	_, err := g.Withdraw("c1", "m1", "p1", 1000, settleWith("tx-1"))
	require.NoError(t, err)

	_, err = g.Withdraw("c1", "m1", "p1", 1000, settleWith("tx-2"))
	var ref *Refusal
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, ReasonProofSettled, ref.Reason)
}

func TestWithdrawMilestoneNotFound(t *testing.T) {
	g := NewGate(newMemRepo(gatedCampaign()))

	_, err := g.Withdraw("c1", "nope", "", 1000, settleWith("tx-1"))
	var notFound *appErrors.ErrMilestoneNotFound
	require.True(t, errors.As(err, &notFound))
}

func TestWithdrawRejectsNonPositiveAmount(t *testing.T) {
	g := NewGate(newMemRepo(gatedCampaign()))

	_, err := g.Withdraw("c1", "m2", "", 0, settleWith("tx-1"))
	var v *appErrors.ValidationError
	require.True(t, errors.As(err, &v))
}

func TestConcurrentWithdrawalsSerializePerCampaign(t *testing.T) {
	c := gatedCampaign()
	g := NewGate(newMemRepo(c))

	var wg sync.WaitGroup
	successes := make(chan float64, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := g.Withdraw("c1", "m2", "", 1000, settleWith("tx")); err == nil {
				successes <- res.Amount
			}
		}()
	}
	wg.Wait()
	close(successes)

	var total float64
	for a := range successes {
		total += a
	}
	// m2 targets 4000; serialization must stop releases at the target.
	assert.Equal(t, 4000.0, total)
}

func TestRefusedWithdrawalNeverExecutesTransfer(t *testing.T) {
	repo := newMemRepo(gatedCampaign())
	g := NewGate(repo)

	settled := 0
	_, err := g.Withdraw("c1", "m1", "", 1000, func(string) (string, error) {
		settled++
		return "tx-1", nil
	})
	var ref *Refusal
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, 0, settled, "a refusal must not be preceded by a transfer")

	// Over-target on the proof-exempt milestone refuses the same way.
	_, err = g.Withdraw("c1", "m2", "", 5000, func(string) (string, error) {
		settled++
		return "tx-2", nil
	})
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, ReasonExceedsTarget, ref.Reason)
	assert.Equal(t, 0, settled)
}

func TestWithdrawPassesLedgerProofRefToSettle(t *testing.T) {
	c := gatedCampaign()
	c.Proofs = append(c.Proofs, approvedProof("p1", "m1"))
	g := NewGate(newMemRepo(c))

	var gotRef string
	res, err := g.Withdraw("c1", "m1", "p1", 2500, func(proofRef string) (string, error) {
		gotRef = proofRef
		return "tx-1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ref-p1", gotRef, "settle must receive the ledger-issued proof ref")
	assert.Equal(t, "ref-p1", res.ProofRef)
}

func TestSettleFailureLeavesStateUnchanged(t *testing.T) {
	c := gatedCampaign()
	c.Proofs = append(c.Proofs, approvedProof("p1", "m1"))
	repo := newMemRepo(c)
	g := NewGate(repo)

	_, err := g.Withdraw("c1", "m1", "p1", 2500, func(string) (string, error) {
		return "", errors.New("chain unavailable")
	})
	var settlement *SettlementError
	require.True(t, errors.As(err, &settlement))

	stored, _ := repo.GetByID("c1")
	assert.Equal(t, 0.0, stored.Milestones[0].ReleasedAmount)
	assert.Empty(t, stored.Proofs[0].SettlementTx)
}
