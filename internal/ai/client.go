// internal/ai/client.go
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Completer is the interface consumers depend on (review engine, chat).
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	CompleteStreaming(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error)
}

// Message is a role-tagged chat message. Content is either a plain
// string or a []ContentPart when the message carries an image.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one typed part of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references a hosted image or an inline data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a plain text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// VisionMessage builds a user message pairing instructions with an image.
func VisionMessage(text, imageURL string) Message {
	return Message{Role: "user", Content: []ContentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
	}}
}

// Options control a single completion call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout overrides the client default for this call when > 0.
	Timeout time.Duration
}

// RetryPolicy is the explicit backoff policy injected into the client.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries twice with 1s/2s backoff capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
}

// Delay returns the backoff before the given retry attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := p.BaseDelay * time.Duration(1<<uint(attempt-1))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// CompletionError is the terminal failure after exhausting retries.
type CompletionError struct {
	Attempts int
	Timeout  bool
	Err      error
}

func (e *CompletionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("completion timed out after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("completion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Config holds client configuration. Values come from the environment at
// wiring time; the client itself never reads env.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
}

// DefaultConfig returns sensible defaults for an OpenAI-compatible endpoint.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 30 * time.Second,
		Retry:   DefaultRetryPolicy(),
	}
}

// Client talks to an OpenAI-compatible chat/vision completion endpoint
// with a hard per-call timeout and bounded exponential-backoff retry.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	retry      RetryPolicy
	httpClient *http.Client
}

// NewClient creates a client from config.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Retry.BaseDelay <= 0 {
		config.Retry = DefaultRetryPolicy()
	}
	return &Client{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      config.Model,
		timeout:    config.Timeout,
		retry:      config.Retry,
		httpClient: &http.Client{},
	}
}

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   float64        `json:"temperature,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta,omitempty"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the messages and returns the assistant's text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	ctx, cancel := c.withTimeout(ctx, opts)
	defer cancel()

	body, err := json.Marshal(c.buildRequest(messages, opts, false))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	attempts := 0
	for i := 0; i <= c.retry.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(c.retry.Delay(i)):
			case <-ctx.Done():
				return "", &CompletionError{Attempts: attempts, Timeout: true, Err: ctx.Err()}
			}
		}
		attempts++

		text, retryable, err := c.doComplete(ctx, body)
		if err == nil {
			log.Printf("[ai] attempt %d/%d succeeded", attempts, c.retry.MaxRetries+1)
			return text, nil
		}
		log.Printf("[ai] attempt %d/%d failed: %v", attempts, c.retry.MaxRetries+1, err)
		lastErr = err
		if ctx.Err() != nil {
			return "", &CompletionError{Attempts: attempts, Timeout: true, Err: err}
		}
		if !retryable {
			break
		}
	}

	return "", &CompletionError{Attempts: attempts, Err: lastErr}
}

// doComplete performs one attempt. The bool result reports whether the
// failure is transient and worth retrying.
func (c *Client) doComplete(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", true, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", true, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", true, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", true, errors.New("no completion returned")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}

// CompleteStreaming sends the messages with streaming enabled and returns
// a lazy, single-pass sequence of content deltas. Malformed intermediate
// events are skipped; the sequence ends on the [DONE] marker or stream
// closure.
func (c *Client) CompleteStreaming(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error) {
	contentChan := make(chan string, 64)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		ctx, cancel := c.withTimeout(ctx, opts)
		defer cancel()

		body, err := json.Marshal(c.buildRequest(messages, opts, true))
		if err != nil {
			errorChan <- fmt.Errorf("failed to marshal request: %w", err)
			return
		}

		// Retry only before the stream begins; once bytes flow, failures
		// terminate the sequence.
		var lastErr error
		attempts := 0
		for i := 0; i <= c.retry.MaxRetries; i++ {
			if i > 0 {
				select {
				case <-time.After(c.retry.Delay(i)):
				case <-ctx.Done():
					errorChan <- &CompletionError{Attempts: attempts, Timeout: true, Err: ctx.Err()}
					return
				}
			}
			attempts++

			req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
			if err != nil {
				errorChan <- fmt.Errorf("failed to create request: %w", err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Accept", "text/event-stream")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				log.Printf("[ai] stream attempt %d/%d failed: %v", attempts, c.retry.MaxRetries+1, err)
				lastErr = fmt.Errorf("request failed: %w", err)
				if ctx.Err() != nil {
					errorChan <- &CompletionError{Attempts: attempts, Timeout: true, Err: err}
					return
				}
				continue
			}

			if resp.StatusCode != http.StatusOK {
				respBody, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				log.Printf("[ai] stream attempt %d/%d failed: status %d", attempts, c.retry.MaxRetries+1, resp.StatusCode)
				lastErr = fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
				continue
			}

			log.Printf("[ai] stream attempt %d/%d connected", attempts, c.retry.MaxRetries+1)
			if err := c.consumeStream(ctx, resp.Body, contentChan); err != nil {
				errorChan <- err
			}
			resp.Body.Close()
			return
		}

		errorChan <- &CompletionError{Attempts: attempts, Err: lastErr}
	}()

	return contentChan, errorChan
}

// consumeStream decodes server-sent events, forwarding only the
// incremental content field of each event.
func (c *Client) consumeStream(ctx context.Context, r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Malformed intermediate events are swallowed, not fatal.
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil && chunk.Choices[0].Delta.Content != "" {
			select {
			case out <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return scanner.Err()
}

func (c *Client) buildRequest(messages []Message, opts Options, stream bool) chatRequest {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	req := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		Stream:      stream,
	}
	if stream {
		req.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return req
}

func (c *Client) withTimeout(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

var _ Completer = (*Client)(nil)
