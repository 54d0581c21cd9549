package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/prompt"
)

// scriptedCompleter returns one canned outcome per attempt, in order
type scriptedCompleter struct {
	responses []*llm.Response
	errs      []error
	calls     int
}

func (s *scriptedCompleter) Name() string {
	return "scripted"
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		return nil, errors.New("no scripted response left")
	}
	return s.responses[i], s.errs[i]
}

func scripted(outcomes ...interface{}) *scriptedCompleter {
	s := &scriptedCompleter{}
	for _, o := range outcomes {
		switch v := o.(type) {
		case string:
			s.responses = append(s.responses, &llm.Response{Content: v})
			s.errs = append(s.errs, nil)
		case error:
			s.responses = append(s.responses, nil)
			s.errs = append(s.errs, v)
		}
	}
	return s
}

const validReviewPayload = `{
	"claim_reviews": [
		{
			"claim": "The Earth is round.",
			"verification": {
				"source": [{"name": "NASA", "content": "Satellite imagery shows a spherical Earth.", "url": "https://nasa.gov"}],
				"conclusion": "Supported by every reliable source."
			}
		}
	]
}`

func newTestPerplexityVerifier(completer llm.Completer) *PerplexityVerifier {
	return NewPerplexityVerifier(completer, prompt.NewStaticStore(prompt.Defaults()), nil)
}

func TestPerplexityVerify_Success(t *testing.T) {
	completer := scripted(validReviewPayload)
	verifier := newTestPerplexityVerifier(completer)
	claim := model.NewClaim("The Earth is round.")

	result, err := verifier.Verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.ClaimID != claim.ID {
		t.Errorf("expected claim id %s, got %s", claim.ID, result.ClaimID)
	}
	if result.Error != "" {
		t.Errorf("expected no result error, got %q", result.Error)
	}
	if result.PerplexityClaimReviews == nil || len(result.PerplexityClaimReviews.ClaimReviews) != 1 {
		t.Fatal("expected exactly one claim review")
	}

	review := result.PerplexityClaimReviews.ClaimReviews[0]
	if review.Verification.Conclusion == "" {
		t.Error("expected a conclusion")
	}
	if len(review.Verification.Sources) != 1 || review.Verification.Sources[0].Name != "NASA" {
		t.Errorf("unexpected sources: %+v", review.Verification.Sources)
	}
	if completer.calls != 1 {
		t.Errorf("expected 1 attempt on clean response, got %d", completer.calls)
	}
}

func TestPerplexityVerify_MissingPrompt(t *testing.T) {
	completer := scripted(validReviewPayload)
	verifier := NewPerplexityVerifier(completer, prompt.NewStaticStore(nil), nil)
	claim := model.NewClaim("anything")

	result, err := verifier.Verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Error != "Prompt not found" {
		t.Errorf("expected 'Prompt not found', got %q", result.Error)
	}
	if completer.calls != 0 {
		t.Errorf("expected no completion attempt without a prompt, got %d", completer.calls)
	}
}

func TestPerplexityVerify_EmptyReviewsIsTerminal(t *testing.T) {
	completer := scripted(`{"claim_reviews": []}`)
	verifier := newTestPerplexityVerifier(completer)
	claim := model.NewClaim("obscure claim")

	result, err := verifier.Verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Error != "No claim reviews returned" {
		t.Errorf("expected 'No claim reviews returned', got %q", result.Error)
	}
	if completer.calls != 1 {
		t.Errorf("expected empty-but-valid answer to terminate after 1 attempt, got %d", completer.calls)
	}
}

func TestPerplexityVerify_MalformedThenValid(t *testing.T) {
	// Shape validation fails on attempts 1-2, valid on attempt 3
	completer := scripted(`{"wrong_field": []}`, `{"also": "wrong"}`, validReviewPayload)
	verifier := newTestPerplexityVerifier(completer)
	claim := model.NewClaim("The Earth is round.")

	result, err := verifier.Verify(context.Background(), claim)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}

	if result.Error != "" {
		t.Errorf("expected no result error, got %q", result.Error)
	}
	if completer.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", completer.calls)
	}
}

func TestPerplexityVerify_RepairableJSON(t *testing.T) {
	// Trailing comma should be repaired, not retried
	payload := `{"claim_reviews": [{"claim": "x", "verification": {"source": [], "conclusion": "unclear"}}],}`
	completer := scripted(payload)
	verifier := newTestPerplexityVerifier(completer)

	result, err := verifier.Verify(context.Background(), model.NewClaim("x"))
	if err != nil {
		t.Fatalf("expected repair to succeed, got %v", err)
	}
	if completer.calls != 1 {
		t.Errorf("expected 1 attempt for repairable payload, got %d", completer.calls)
	}
	if result.PerplexityClaimReviews == nil {
		t.Fatal("expected reviews on repaired payload")
	}
}

func TestPerplexityVerify_TransportErrorsExhaustRetries(t *testing.T) {
	transportErr := errors.New("connection reset")
	completer := scripted(transportErr, transportErr, transportErr)
	verifier := newTestPerplexityVerifier(completer)

	_, err := verifier.Verify(context.Background(), model.NewClaim("x"))
	if err == nil {
		t.Fatal("expected exhausted retries to surface an error")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected final transport error to propagate, got %v", err)
	}
	if completer.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", completer.calls)
	}
}

func TestPerplexityVerify_ValidationErrorOnFinalAttemptPropagates(t *testing.T) {
	completer := scripted(`not even json {{{`, `still wrong`, `{"missing": true}`)
	verifier := newTestPerplexityVerifier(completer)

	_, err := verifier.Verify(context.Background(), model.NewClaim("x"))
	if err == nil {
		t.Fatal("expected validation failure on final attempt to propagate")
	}
	if completer.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", completer.calls)
	}
}

func TestDecodeClaimsReview_CitationsMerged(t *testing.T) {
	citations := []string{"https://example.com/a", "https://example.com/b"}

	review, err := decodeClaimsReview(validReviewPayload, citations)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(review.Citations) != 2 {
		t.Fatalf("expected 2 citations merged into payload, got %d", len(review.Citations))
	}
	if review.Citations[0] != "https://example.com/a" {
		t.Errorf("unexpected citation order: %v", review.Citations)
	}
}

func TestDecodeClaimsReview_MissingField(t *testing.T) {
	_, err := decodeClaimsReview(`{"claims": []}`, nil)
	if err == nil {
		t.Fatal("expected error for payload without claim_reviews")
	}
	if !strings.Contains(err.Error(), "claim_reviews") {
		t.Errorf("expected error to name the missing field, got %v", err)
	}
}
