// internal/review/engine.go
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/givechain/givechain-backend/internal/ai"
	"github.com/givechain/givechain-backend/internal/model"
	"github.com/givechain/givechain-backend/internal/upload"
)

// amountTolerance is the absolute currency-unit tolerance for the
// locally recomputed amount match.
const amountTolerance = 100.0

// Source tags where a verdict came from, so callers can tell "the model
// said X" apart from "the model said nothing usable".
type Source string

const (
	// SourceParsed: the model produced a valid JSON verdict.
	SourceParsed Source = "parsed"
	// SourceMalformed: a JSON object was found but did not decode as a
	// verdict; the result is synthesized.
	SourceMalformed Source = "malformed"
	// SourceFallback: no JSON object at all; the result is synthesized.
	SourceFallback Source = "fallback"
)

// Outcome is a verdict plus its provenance tag.
type Outcome struct {
	Result   model.AIReviewResult
	Source   Source
	ImageURL string
}

// Completion is the slice of the AI client the engine needs.
type Completion interface {
	Complete(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error)
}

// Engine builds the verification prompt, runs the model, parses its
// verdict and cross-checks it against the claim.
type Engine struct {
	Client   Completion
	Uploader upload.Uploader
	Model    string
}

// Review verifies a proof image against the claimed amount and campaign
// purpose. It never returns an error: any upstream failure degrades to a
// synthesized manual_review verdict so the submission flow cannot stall.
func (e *Engine) Review(ctx context.Context, img upload.Image, claimedAmount float64, purpose string) Outcome {
	if strings.TrimSpace(purpose) == "" {
		purpose = "general charitable spending"
	}

	imageURL := e.resolveImageURL(ctx, img)

	prompt := buildPrompt(claimedAmount, purpose)
	messages := []ai.Message{
		ai.TextMessage("system", "You are an invoice verification assistant for a donation platform. Respond with JSON only."),
		ai.VisionMessage(prompt, imageURL),
	}

	raw, err := e.Client.Complete(ctx, messages, ai.Options{Model: e.Model, MaxTokens: 1024, Temperature: 0.1})
	if err != nil {
		log.Println("⚠️ AI review call failed, synthesizing fallback verdict:", err)
		return Outcome{Result: fallbackVerdict(claimedAmount), Source: SourceFallback, ImageURL: imageURL}
	}

	verdict, source := parseVerdict(raw)
	if source != SourceParsed {
		log.Printf("⚠️ AI review output unusable (%s), synthesizing fallback verdict", source)
		return Outcome{Result: fallbackVerdict(claimedAmount), Source: source, ImageURL: imageURL}
	}

	return Outcome{Result: normalize(verdict, claimedAmount), Source: SourceParsed, ImageURL: imageURL}
}

// resolveImageURL hosts the image when possible and falls back to an
// inline data URI. Upload failure is logged, never treated as an error.
func (e *Engine) resolveImageURL(ctx context.Context, img upload.Image) string {
	if e.Uploader != nil {
		url, err := e.Uploader.Upload(ctx, img)
		if err == nil {
			return url
		}
		log.Println("⚠️ image upload failed, embedding as data URI:", err)
	}
	return img.DataURI()
}

func buildPrompt(claimedAmount float64, purpose string) string {
	return fmt.Sprintf(`Analyze the attached invoice or receipt image.

1. Extract these fields: amount (number), date, recipient, purpose.
2. Verify: is the document format valid? does it appear original rather than edited? is the date plausible? does the spending purpose align with "%s"? Give an authenticity score between 0 and 1.
3. Decide: "approved", "rejected" or "manual_review", with a confidence between 0 and 1 and a short reason. The beneficiary claims this spending was %.2f.

Respond with a single JSON object only, no other text:
{"extracted":{"amount":0,"date":"","recipient":"","purpose":""},"verification":{"formatValid":false,"dateValid":false,"purposeMatch":false,"amountMatch":false,"authenticityScore":0},"decision":{"status":"","confidence":0,"reason":""}}`, purpose, claimedAmount)
}

// modelVerdict is the wire shape we ask the model to produce. Pointer
// fields so absent values can be defaulted instead of read as zero.
type modelVerdict struct {
	Extracted struct {
		Amount    *float64 `json:"amount"`
		Date      string   `json:"date"`
		Recipient string   `json:"recipient"`
		Purpose   string   `json:"purpose"`
	} `json:"extracted"`
	Verification struct {
		FormatValid       *bool    `json:"formatValid"`
		DateValid         *bool    `json:"dateValid"`
		PurposeMatch      *bool    `json:"purposeMatch"`
		AmountMatch       *bool    `json:"amountMatch"`
		AuthenticityScore *float64 `json:"authenticityScore"`
	} `json:"verification"`
	Decision struct {
		Status     string   `json:"status"`
		Confidence *float64 `json:"confidence"`
		Reason     string   `json:"reason"`
	} `json:"decision"`
}

// parseVerdict finds the first balanced JSON object in the model output
// and decodes it. Distinguishes "no JSON" from "JSON that isn't a verdict".
func parseVerdict(raw string) (*modelVerdict, Source) {
	candidates := extractJSONObjects(raw)
	if len(candidates) == 0 {
		return nil, SourceFallback
	}
	for _, candidate := range candidates {
		var v modelVerdict
		if err := json.Unmarshal([]byte(candidate), &v); err != nil {
			continue
		}
		return &v, SourceParsed
	}
	return nil, SourceMalformed
}

// normalize maps the model verdict onto the stored result shape,
// recomputing amountMatch locally and defaulting absent checks to safe
// values (false / 0.5).
func normalize(v *modelVerdict, claimedAmount float64) model.AIReviewResult {
	extractedAmount := 0.0
	if v.Extracted.Amount != nil {
		extractedAmount = *v.Extracted.Amount
	}

	status := v.Decision.Status
	switch status {
	case model.ReviewStatusApproved, model.ReviewStatusRejected, model.ReviewStatusManualReview:
	default:
		// Ambiguous signal goes to a human, never to silent approval.
		status = model.ReviewStatusManualReview
	}

	confidence := 0.5
	if v.Decision.Confidence != nil {
		confidence = clamp01(*v.Decision.Confidence)
	}

	authenticity := 0.5
	if v.Verification.AuthenticityScore != nil {
		authenticity = clamp01(*v.Verification.AuthenticityScore)
	}

	reason := v.Decision.Reason
	if reason == "" {
		reason = "model returned no reason"
	}

	return model.AIReviewResult{
		Status:     status,
		Confidence: confidence,
		Extracted: model.ExtractedFields{
			Amount:    extractedAmount,
			Date:      v.Extracted.Date,
			Recipient: v.Extracted.Recipient,
			Purpose:   v.Extracted.Purpose,
		},
		Checks: model.ReviewChecks{
			// The model's own amountMatch is not trusted.
			AmountMatch:       amountMatches(extractedAmount, claimedAmount),
			DateValid:         boolOrFalse(v.Verification.DateValid),
			FormatValid:       boolOrFalse(v.Verification.FormatValid),
			PurposeMatch:      boolOrFalse(v.Verification.PurposeMatch),
			AuthenticityScore: authenticity,
		},
		Reason: reason,
	}
}

// fallbackVerdict is the synthesized result when the model's answer is
// unusable. Biased to manual review so an unreadable reply never turns
// into a silent approval.
func fallbackVerdict(claimedAmount float64) model.AIReviewResult {
	confidence := 0.45 + rand.Float64()*0.2
	return model.AIReviewResult{
		Status:     model.ReviewStatusManualReview,
		Confidence: confidence,
		Extracted:  model.ExtractedFields{},
		Checks: model.ReviewChecks{
			AmountMatch:       amountMatches(0, claimedAmount),
			AuthenticityScore: 0.5,
		},
		Reason: "automatic verification was unavailable; queued for manual review",
	}
}

func amountMatches(extracted, claimed float64) bool {
	diff := extracted - claimed
	if diff < 0 {
		diff = -diff
	}
	return diff < amountTolerance
}

func boolOrFalse(b *bool) bool {
	return b != nil && *b
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
