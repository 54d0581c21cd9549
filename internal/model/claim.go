package model

import (
	"time"

	"github.com/google/uuid"
)

// Claim represents a single verifiable factual assertion extracted from input text
type Claim struct {
	ID          string     `json:"id"`                     // Correlation key, never reused across claims
	Content     string     `json:"content"`                // The claim text itself
	ExtractedAt *time.Time `json:"extracted_at,omitempty"` // When the claim was extracted
}

// NewClaim creates a claim with a fresh identifier
func NewClaim(content string) Claim {
	now := time.Now().UTC()
	return Claim{
		ID:          uuid.NewString(),
		Content:     content,
		ExtractedAt: &now,
	}
}

// ExtractedClaims is the raw shape expected from the extraction model.
// Only Claims survives into the pipeline.
type ExtractedClaims struct {
	Original string   `json:"original"`
	English  string   `json:"english"`
	Claims   []string `json:"claims"`
}

// GoogleClaimReview represents one review entry from the Google Fact Check Tools API
type GoogleClaimReview struct {
	Publisher     map[string]string `json:"publisher"` // e.g. {"name": ..., "site": ...}
	URL           string            `json:"url"`
	Title         string            `json:"title"`
	ReviewDate    *time.Time        `json:"review_date,omitempty"`
	TextualRating string            `json:"textual_rating"` // "True", "False", "Mostly True", ...
	LanguageCode  string            `json:"language_code"`
}

// PerplexitySource is a single source cited in a Perplexity claim review
type PerplexitySource struct {
	Name    string `json:"name"`
	Date    string `json:"date,omitempty"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

// PerplexityVerification holds the sources and conclusion for one claim
type PerplexityVerification struct {
	Sources    []PerplexitySource `json:"source"`
	Conclusion string             `json:"conclusion"`
}

// PerplexityClaimReview pairs a claim text with its verification
type PerplexityClaimReview struct {
	Claim        string                 `json:"claim"`
	Verification PerplexityVerification `json:"verification"`
}

// PerplexityClaimsReview is the full payload returned by the Perplexity
// checking backend. The provider may return zero or more claim reviews.
type PerplexityClaimsReview struct {
	ClaimReviews []PerplexityClaimReview `json:"claim_reviews"`
	Citations    []string                `json:"citations,omitempty"`
}

// VerificationResult is the outcome of verifying one claim with one provider.
// Exactly one result is produced per submitted claim; ClaimID matches the
// Claim it was produced for. Never mutated after creation.
type VerificationResult struct {
	ClaimID                string                  `json:"claim_id"`
	Claim                  string                  `json:"claim"` // Text snapshot at verification time
	GoogleClaimReviews     []GoogleClaimReview     `json:"google_claim_reviews,omitempty"`
	PerplexityClaimReviews *PerplexityClaimsReview `json:"perplexity_claim_reviews,omitempty"`
	Error                  string                  `json:"error,omitempty"`
	VerifiedAt             time.Time               `json:"verified_at"`
}

// ErrorResult builds an error-carrying result for a claim with no reviews
func ErrorResult(claim Claim, errMsg string) VerificationResult {
	return VerificationResult{
		ClaimID:    claim.ID,
		Claim:      claim.Content,
		Error:      errMsg,
		VerifiedAt: time.Now().UTC(),
	}
}
