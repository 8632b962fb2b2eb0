// internal/ledger/ledger.go
package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// Ledger is the on-chain collaborator that actually holds and transfers
// funds. This core only reports verdicts to it and reads confirmations
// back; it never implements the transfer itself.
type Ledger interface {
	SubmitProof(ctx context.Context, campaignID, milestoneID, proofHash string, amount float64, evidenceURI string) (string, error)
	Withdraw(ctx context.Context, campaignID, milestoneID, proofRef string) (string, error)
	IsProofApproved(ctx context.Context, proofRef string) (bool, error)
}

// MockLedger simulates the chain for local development: proof refs and
// settlement refs are random hex handles kept in memory.
type MockLedger struct {
	mu       sync.Mutex
	approved map[string]bool
}

func NewMockLedger() *MockLedger {
	return &MockLedger{approved: make(map[string]bool)}
}

func (m *MockLedger) SubmitProof(_ context.Context, campaignID, milestoneID, proofHash string, amount float64, evidenceURI string) (string, error) {
	ref := fmt.Sprintf("proof-0x%012x", rand.Int63n(1<<48))
	m.mu.Lock()
	m.approved[ref] = true
	m.mu.Unlock()
	return ref, nil
}

func (m *MockLedger) Withdraw(_ context.Context, campaignID, milestoneID, proofRef string) (string, error) {
	return fmt.Sprintf("tx-0x%012x", rand.Int63n(1<<48)), nil
}

func (m *MockLedger) IsProofApproved(_ context.Context, proofRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approved[proofRef], nil
}

var _ Ledger = (*MockLedger)(nil)
