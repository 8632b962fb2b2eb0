package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/givechain/givechain-backend/internal/ai"
	"github.com/givechain/givechain-backend/internal/handler"
)

type fakeCompleter struct {
	reply  string
	err    error
	chunks []string
	got    []ai.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []ai.Message, _ ai.Options) (string, error) {
	f.got = messages
	return f.reply, f.err
}

func (f *fakeCompleter) CompleteStreaming(_ context.Context, messages []ai.Message, _ ai.Options) (<-chan string, <-chan error) {
	f.got = messages
	chunks := make(chan string, len(f.chunks))
	errs := make(chan error, 1)
	for _, c := range f.chunks {
		chunks <- c
	}
	if f.err != nil {
		errs <- f.err
	}
	close(chunks)
	close(errs)
	return chunks, errs
}

func postChat(t *testing.T, h *handler.ChatHandler, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(b))
	w := httptest.NewRecorder()
	h.Chat(w, req)
	return w
}

func TestChatReturnsReplyAndAction(t *testing.T) {
	client := &fakeCompleter{reply: "You can donate from any campaign page."}
	h := &handler.ChatHandler{Client: client, Model: "gpt-4o-mini"}

	w := postChat(t, h, map[string]interface{}{
		"message": "I want to donate to flood relief",
		"role":    "donor",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Reply   string `json:"reply"`
		Action  struct {
			Type  string `json:"type"`
			Query string `json:"query"`
		} `json:"action"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply != client.reply {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
	if resp.Action.Type != "donate" {
		t.Errorf("expected donate action, got %q", resp.Action.Type)
	}
	if len(client.got) != 2 || client.got[0].Role != "system" {
		t.Errorf("expected system+user messages, got %+v", client.got)
	}
}

func TestChatUpstreamFailureServesApology(t *testing.T) {
	client := &fakeCompleter{err: errors.New("upstream down")}
	h := &handler.ChatHandler{Client: client}

	w := postChat(t, h, map[string]interface{}{"message": "hello there"})

	if w.Code != http.StatusOK {
		t.Fatalf("fallback must be 200, got %d", w.Code)
	}

	var resp struct {
		Success     bool     `json:"success"`
		Reply       string   `json:"reply"`
		Suggestions []string `json:"suggestions"`
		Fallback    bool     `json:"fallback"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Fallback {
		t.Error("expected fallback flag")
	}
	if !strings.Contains(resp.Reply, "Sorry") {
		t.Errorf("expected apology text, got %q", resp.Reply)
	}
	if len(resp.Suggestions) == 0 {
		t.Error("expected suggested next actions")
	}
}

func TestChatMissingMessageIs400(t *testing.T) {
	h := &handler.ChatHandler{Client: &fakeCompleter{}}

	w := postChat(t, h, map[string]interface{}{"role": "donor"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatStreamingRelaysChunks(t *testing.T) {
	client := &fakeCompleter{chunks: []string{"Hel", "lo"}}
	h := &handler.ChatHandler{Client: client}

	w := postChat(t, h, map[string]interface{}{
		"message": "track my donations",
		"role":    "donor",
		"stream":  true,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, `"track"`) {
		t.Errorf("first event should carry the classified action, got %s", body)
	}
	if !strings.Contains(body, `"Hel"`) || !strings.Contains(body, `"lo"`) {
		t.Errorf("chunks not relayed: %s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]") {
		t.Errorf("stream must end with the done marker, got %s", body)
	}
}

func TestChatStreamingFailureEmitsApologyEvent(t *testing.T) {
	client := &fakeCompleter{err: errors.New("stream broke")}
	h := &handler.ChatHandler{Client: client}

	w := postChat(t, h, map[string]interface{}{
		"message": "hello",
		"stream":  true,
	})

	body := w.Body.String()
	if !strings.Contains(body, "Sorry") {
		t.Errorf("expected apology event, got %s", body)
	}
	if !strings.Contains(body, `"fallback":true`) {
		t.Errorf("expected fallback marker, got %s", body)
	}
}
