// internal/handler/chat_handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/givechain/givechain-backend/internal/ai"
	"github.com/givechain/givechain-backend/internal/intent"
)

const chatSystemPrompt = "You are GiveChain's assistant for a milestone-based donation platform. " +
	"Donors can search campaigns, donate, and track how funds flow through milestones. " +
	"Beneficiaries can upload spending proofs and request milestone withdrawals once a proof is approved. " +
	"Answer briefly and concretely."

// apologyReply is what the user sees when the upstream model is down.
const apologyReply = "Sorry, I'm having trouble answering right now. " +
	"You can still browse campaigns, make a donation, or track your past donations while I recover."

var apologySuggestions = []string{"search campaigns", "donate", "track my donations"}

// ChatHandler serves the conversational endpoint. Intent classification
// is local and never fails; only the model reply depends on upstream.
type ChatHandler struct {
	Client ai.Completer
	Model  string
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
		Role    string `json:"role"`
		Stream  bool   `json:"stream"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	action := intent.Classify(body.Message, body.Role)

	messages := []ai.Message{
		ai.TextMessage("system", chatSystemPrompt),
		ai.TextMessage("user", body.Message),
	}
	opts := ai.Options{Model: h.Model, MaxTokens: 512, Temperature: 0.7}

	if body.Stream {
		h.streamReply(w, r, messages, opts, action)
		return
	}

	reply, err := h.Client.Complete(r.Context(), messages, opts)
	if err != nil {
		log.Println("⚠️ chat completion failed, serving fallback:", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"reply":       apologyReply,
			"action":      action,
			"suggestions": apologySuggestions,
			"fallback":    true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reply":   reply,
		"action":  action,
	})
}

// streamReply relays model chunks as server-sent events. The action is
// sent as the first event so the UI can render it before any text.
func (h *ChatHandler) streamReply(w http.ResponseWriter, r *http.Request, messages []ai.Message, opts ai.Options, action intent.Action) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	chunks, errs := h.Client.CompleteStreaming(r.Context(), messages, opts)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(payload interface{}) {
		b, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", b)
		flusher.Flush()
	}

	writeEvent(map[string]interface{}{"action": action})

	for chunks != nil || errs != nil {
		select {
		case chunk, open := <-chunks:
			if !open {
				chunks = nil
				continue
			}
			writeEvent(map[string]interface{}{"delta": chunk})
		case err, open := <-errs:
			if !open {
				errs = nil
				continue
			}
			if err != nil {
				log.Println("⚠️ chat stream failed, serving fallback:", err)
				writeEvent(map[string]interface{}{
					"delta":       apologyReply,
					"suggestions": apologySuggestions,
					"fallback":    true,
				})
			}
			errs = nil
		case <-r.Context().Done():
			return
		}
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}
