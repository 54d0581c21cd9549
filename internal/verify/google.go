package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ppiankov/veracity/internal/model"
	"golang.org/x/time/rate"
)

const defaultGoogleBaseURL = "https://factchecktools.googleapis.com"

// GoogleVerifier checks claims against the Google Fact Check Tools API.
// It never returns an error from Verify: transport and API failures land in
// the result's Error field, and zero matches is a clean result.
type GoogleVerifier struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Google Fact Check Tools API structures (claims:search)
type googleSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
			LanguageCode  string `json:"languageCode"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// NewGoogleVerifier creates a new Google fact-check verifier
func NewGoogleVerifier(cfg model.GoogleConfig, logger *slog.Logger) *GoogleVerifier {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &GoogleVerifier{
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Name returns the tool name
func (v *GoogleVerifier) Name() string {
	return "google"
}

// Verify searches fact-check reviews for the claim's text
func (v *GoogleVerifier) Verify(ctx context.Context, claim model.Claim) (model.VerificationResult, error) {
	reviews, err := v.search(ctx, claim.Content)
	if err != nil {
		v.logger.Error("error checking claim", "claim_id", claim.ID, "error", err)
		return model.ErrorResult(claim, err.Error()), nil
	}

	result := model.VerificationResult{
		ClaimID:    claim.ID,
		Claim:      claim.Content,
		VerifiedAt: time.Now().UTC(),
	}
	if len(reviews) > 0 {
		result.GoogleClaimReviews = reviews
	}
	return result, nil
}

// search issues one claims:search call and flattens the review entries in
// response order
func (v *GoogleVerifier) search(ctx context.Context, query string) ([]model.GoogleClaimReview, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(v.pageSize))
	params.Set("key", v.apiKey)

	endpoint := v.baseURL + "/v1alpha1/claims:search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fact check search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fact check API error: status %d", resp.StatusCode)
	}

	var searchResp googleSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	var reviews []model.GoogleClaimReview
	for _, matched := range searchResp.Claims {
		for _, cr := range matched.ClaimReview {
			review := model.GoogleClaimReview{
				Publisher: map[string]string{
					"name": cr.Publisher.Name,
					"site": cr.Publisher.Site,
				},
				URL:           cr.URL,
				Title:         cr.Title,
				TextualRating: cr.TextualRating,
				LanguageCode:  cr.LanguageCode,
			}
			if cr.ReviewDate != "" {
				if t, parseErr := time.Parse(time.RFC3339, cr.ReviewDate); parseErr == nil {
					review.ReviewDate = &t
				}
			}
			reviews = append(reviews, review)
		}
	}

	return reviews, nil
}
