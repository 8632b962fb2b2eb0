// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"

    "github.com/go-chi/chi/v5"

    "github.com/givechain/givechain-backend/internal/disbursement"
    appErrors "github.com/givechain/givechain-backend/internal/errors"
    "github.com/givechain/givechain-backend/internal/ledger"
    "github.com/givechain/givechain-backend/internal/queue"
    "github.com/givechain/givechain-backend/internal/service"
)

type CampaignController struct {
    Service *service.CampaignService
    Gate    *disbursement.Gate
    Ledger  ledger.Ledger
    Queue   queue.Queue
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
    writeJSON(w, status, map[string]interface{}{
        "success": false,
        "error":   msg,
    })
}

// writeDomainError maps service and gate errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
    var validation *appErrors.ValidationError
    var campaignNotFound *appErrors.ErrCampaignNotFound
    var milestoneNotFound *appErrors.ErrMilestoneNotFound
    var refusal *disbursement.Refusal

    switch {
    case errors.As(err, &validation):
        writeError(w, http.StatusBadRequest, validation.Message)
    case errors.As(err, &campaignNotFound), errors.As(err, &milestoneNotFound):
        writeError(w, http.StatusNotFound, err.Error())
    case errors.As(err, &refusal):
        writeError(w, http.StatusConflict, refusal.Error())
    default:
        log.Println("⚠️ internal error:", err)
        writeError(w, http.StatusInternalServerError, "internal error")
    }
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    campaigns, err := c.Service.ListCampaigns()
    if err != nil {
        writeDomainError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "success":   true,
        "campaigns": campaigns,
    })
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")

    campaign, err := c.Service.GetCampaign(id)
    if err != nil {
        writeDomainError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "success":  true,
        "campaign": campaign,
    })
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var req service.CreateCampaignRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
        return
    }

    campaign, err := c.Service.CreateCampaign(req)
    if err != nil {
        writeDomainError(w, err)
        return
    }

    log.Println("✅ Campaign created:", campaign.ID)
    writeJSON(w, http.StatusCreated, map[string]interface{}{
        "success":  true,
        "campaign": campaign,
    })
}

func (c *CampaignController) RecordDonation(w http.ResponseWriter, r *http.Request) {
    campaignID := chi.URLParam(r, "id")

    var body struct {
        Donor  string  `json:"donor"`
        Amount float64 `json:"amount"`
        Tx     string  `json:"tx"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
        return
    }

    donation, err := c.Service.RecordDonation(campaignID, body.Donor, body.Amount, body.Tx)
    if err != nil {
        writeDomainError(w, err)
        return
    }

    writeJSON(w, http.StatusCreated, map[string]interface{}{
        "success":  true,
        "donation": donation,
    })
}

// Withdraw releases milestone funds once the disbursement gate approves the
// request, then publishes the settlement for reconciliation.
func (c *CampaignController) Withdraw(w http.ResponseWriter, r *http.Request) {
    campaignID := chi.URLParam(r, "id")
    milestoneID := chi.URLParam(r, "milestoneId")

    var body struct {
        ProofID string  `json:"proofId"`
        Amount  float64 `json:"amount"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
        return
    }

    // The gate invokes the ledger transfer only after every precondition
    // passed, so a refusal never strands an executed transfer.
    result, err := c.Gate.Withdraw(campaignID, milestoneID, body.ProofID, body.Amount,
        func(proofRef string) (string, error) {
            return c.Ledger.Withdraw(r.Context(), campaignID, milestoneID, proofRef)
        })
    if err != nil {
        var settlement *disbursement.SettlementError
        if errors.As(err, &settlement) {
            log.Println("⚠️ ledger withdraw failed:", err)
            writeError(w, http.StatusBadGateway, "settlement layer unavailable")
            return
        }
        writeDomainError(w, err)
        return
    }

    if c.Queue != nil {
        evt := queue.DisbursementEvent{
            CampaignID:    campaignID,
            MilestoneID:   milestoneID,
            ProofID:       result.ProofID,
            ProofRef:      result.ProofRef,
            Amount:        result.Amount,
            SettlementRef: result.SettlementRef,
        }
        if err := c.Queue.Publish(queue.TopicDisbursements, evt); err != nil {
            log.Println("⚠️ failed to queue disbursement for reconciliation:", err)
        }
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "success":      true,
        "milestone":    result.Milestone,
        "settlementTx": result.SettlementRef,
    })
}
