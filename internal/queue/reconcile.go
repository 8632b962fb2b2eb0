package queue

import (
	"context"
	"log"
	"time"

	"github.com/givechain/givechain-backend/internal/ledger"
)

// StartDisbursementSubscriber wires the reconciliation handler into the
// queue. For every disbursement event the off-chain mirror produced, it
// re-reads the ledger and flags any divergence between the two sources
// of truth.
func StartDisbursementSubscriber(q Queue, chain ledger.Ledger) {
	go func() {
		err := q.Subscribe(TopicDisbursements, func(payload any) error {
			evt, ok := payload.(DisbursementEvent)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected DisbursementEvent")
				return nil // no retry
			}
			return ReconcileDisbursement(context.Background(), chain, evt)
		})
		if err != nil {
			log.Println("⚠️ Failed to start subscriber for", TopicDisbursements, ":", err)
		}
	}()
}

// ReconcileDisbursement checks a single disbursement event against the
// ledger. A proof the chain does not recognize as approved means the
// off-chain mirror ran ahead of the chain and needs operator attention.
func ReconcileDisbursement(ctx context.Context, chain ledger.Ledger, evt DisbursementEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if evt.ProofRef == "" {
		// Milestones without proof gating have nothing to reconcile.
		log.Printf("📒 disbursement %s recorded for milestone %s (no proof gating)", evt.SettlementRef, evt.MilestoneID)
		return nil
	}

	approved, err := chain.IsProofApproved(ctx, evt.ProofRef)
	if err != nil {
		log.Println("⚠️ ledger read failed during reconciliation:", err)
		return err // triggers retry in queue
	}
	if !approved {
		log.Printf("🚨 mirror/ledger divergence: settlement %s references proof %s which the ledger has not approved",
			evt.SettlementRef, evt.ProofRef)
		return nil // divergence is logged, not retried
	}

	log.Printf("📒 disbursement %s reconciled against ledger (milestone %s, amount %.2f)",
		evt.SettlementRef, evt.MilestoneID, evt.Amount)
	return nil
}
