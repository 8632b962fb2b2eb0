// internal/handler/proof_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	appErrors "github.com/givechain/givechain-backend/internal/errors"
	"github.com/givechain/givechain-backend/internal/service"
	"github.com/givechain/givechain-backend/internal/upload"
)

// maxProofImageBytes bounds the multipart body we are willing to buffer.
const maxProofImageBytes = 10 << 20

// ProofHandler holds the dependencies for proof-review HTTP handlers.
type ProofHandler struct {
	Service  *service.CampaignService
	Reviewer service.Reviewer
}

// ReviewProof accepts a multipart proof submission and responds with the
// review verdict. The verdict itself never carries an error status: when
// the reviewer cannot reach a decision it synthesizes a manual_review
// fallback, so the only failure responses here are validation ones.
func (h *ProofHandler) ReviewProof(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProofImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxProofImageBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image: "+err.Error())
		return
	}

	amountStr := r.FormValue("amount")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be a positive number, got "+amountStr)
		return
	}

	img := upload.Image{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
	}
	purpose := r.FormValue("purpose")
	campaignID := r.FormValue("campaignId")
	milestoneID := r.FormValue("milestoneId")

	// Bound submission: persist the proof against the milestone.
	if campaignID != "" && milestoneID != "" {
		proof, err := h.Service.SubmitProof(r.Context(), campaignID, milestoneID, img, amount, purpose)
		if err != nil && proof == nil {
			writeDomainError(w, err)
			return
		}
		if err != nil {
			// Persistence failed but the verdict exists; surface the
			// verdict without claiming the proof was stored.
			log.Println("⚠️ proof verdict returned without persistence:", err)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":   false,
				"persisted": false,
				"error":     "proof review completed but could not be stored",
				"proof":     proof,
				"review":    proof.AIReview,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"proof":   proof,
			"review":  proof.AIReview,
		})
		return
	}

	// Standalone review: no campaign context, just the verdict.
	outcome := h.Reviewer.Review(r.Context(), img, amount, purpose)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome.Result)
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

func writeDomainError(w http.ResponseWriter, err error) {
	var validation *appErrors.ValidationError
	var campaignNotFound *appErrors.ErrCampaignNotFound
	var milestoneNotFound *appErrors.ErrMilestoneNotFound

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &campaignNotFound), errors.As(err, &milestoneNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Println("⚠️ internal error:", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
