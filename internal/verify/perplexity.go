package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/prompt"
)

const perplexityMaxAttempts = 3

// PerplexityVerifier checks claims through an LLM-backed checking service.
// Upstream responses are not guaranteed well-formed JSON, so each attempt is
// a fetch stage (network, retryable) composed with a decode stage (repair
// and validate, bounded by the same attempt budget). An empty-but-well-formed
// answer is terminal and not retried.
type PerplexityVerifier struct {
	completer llm.Completer
	prompts   *prompt.Store
	logger    *slog.Logger
}

// NewPerplexityVerifier creates a new Perplexity verifier
func NewPerplexityVerifier(completer llm.Completer, prompts *prompt.Store, logger *slog.Logger) *PerplexityVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PerplexityVerifier{
		completer: completer,
		prompts:   prompts,
		logger:    logger,
	}
}

// Name returns the tool name
func (v *PerplexityVerifier) Name() string {
	return "perplexity"
}

// Verify checks a single claim. A missing prompt template is a configuration
// error and terminal; exhausted retries surface as a non-nil error for the
// coordinator to convert.
func (v *PerplexityVerifier) Verify(ctx context.Context, claim model.Claim) (model.VerificationResult, error) {
	p, ok := v.prompts.Snapshot().Get(prompt.PerplexityFactCheck)
	if !ok {
		v.logger.Error("prompt not found", "prompt", prompt.PerplexityFactCheck, "claim_id", claim.ID)
		return model.ErrorResult(claim, "Prompt not found"), nil
	}

	review, err := v.claimReviews(ctx, claim, p)
	if err != nil {
		return model.VerificationResult{}, err
	}

	if len(review.ClaimReviews) == 0 {
		return model.ErrorResult(claim, "No claim reviews returned"), nil
	}

	return model.VerificationResult{
		ClaimID:                claim.ID,
		Claim:                  claim.Content,
		PerplexityClaimReviews: review,
		VerifiedAt:             time.Now().UTC(),
	}, nil
}

// claimReviews runs the bounded retry loop over fetch and decode
func (v *PerplexityVerifier) claimReviews(ctx context.Context, claim model.Claim, p prompt.Prompt) (*model.PerplexityClaimsReview, error) {
	for attempt := 1; attempt <= perplexityMaxAttempts; attempt++ {
		resp, err := v.fetch(ctx, claim, p)
		if err != nil {
			v.logger.Error("fact-check completion failed",
				"claim_id", claim.ID, "attempt", attempt, "error", err)
			if attempt == perplexityMaxAttempts {
				return nil, err
			}
			continue
		}

		if resp == nil || resp.Content == "" {
			v.logger.Warn("no valid fact-check response, retrying",
				"claim_id", claim.ID, "attempt", attempt)
			continue
		}

		review, err := decodeClaimsReview(resp.Content, resp.Citations)
		if err != nil {
			v.logger.Error("failed to decode fact-check response",
				"claim_id", claim.ID, "attempt", attempt, "error", err)
			if attempt == perplexityMaxAttempts {
				return nil, err
			}
			continue
		}

		return review, nil
	}

	return nil, fmt.Errorf("no valid response from fact-check service after %d attempts", perplexityMaxAttempts)
}

// fetch issues one completion request carrying the claim as user content
func (v *PerplexityVerifier) fetch(ctx context.Context, claim model.Claim, p prompt.Prompt) (*llm.Response, error) {
	return v.completer.Complete(ctx, llm.Request{
		System:      p.Template,
		Messages:    []llm.Message{{Role: "user", Content: "Claim: " + claim.Content}},
		Model:       p.Model,
		Temperature: p.Temperature,
	})
}

// decodeClaimsReview parses the raw content with structural repair, merges
// response citations, and validates the expected shape
func decodeClaimsReview(raw string, citations []string) (*model.PerplexityClaimsReview, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, fmt.Errorf("repair response: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return nil, fmt.Errorf("parse repaired response: %w", err)
		}
	}

	if _, ok := parsed["claim_reviews"]; !ok {
		return nil, fmt.Errorf("response missing required 'claim_reviews' field")
	}

	if len(citations) > 0 {
		merged := make([]interface{}, len(citations))
		for i, c := range citations {
			merged[i] = c
		}
		parsed["citations"] = merged
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}

	var review model.PerplexityClaimsReview
	if err := json.Unmarshal(normalized, &review); err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}

	return &review, nil
}
