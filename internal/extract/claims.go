package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kaptinlin/jsonrepair"
	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/prompt"
)

// ClaimExtractor turns raw text into an ordered list of claims via a single
// completion call. Extraction failure degrades to "no claims found" - it
// never surfaces an error to the caller.
type ClaimExtractor struct {
	completer llm.Completer
	prompts   *prompt.Store
	logger    *slog.Logger
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(completer llm.Completer, prompts *prompt.Store, logger *slog.Logger) *ClaimExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimExtractor{
		completer: completer,
		prompts:   prompts,
		logger:    logger,
	}
}

// Extract extracts claims from the given text. Empty input returns an empty
// slice without issuing a completion call. Claim order matches the order in
// the model response.
func (e *ClaimExtractor) Extract(ctx context.Context, text string) []model.Claim {
	if text == "" {
		e.logger.Warn("no text provided for claim extraction")
		return nil
	}

	p, ok := e.prompts.Snapshot().Get(prompt.ExtractClaims)
	if !ok {
		e.logger.Error("prompt not found", "prompt", prompt.ExtractClaims)
		return nil
	}

	resp, err := e.completer.Complete(ctx, llm.Request{
		System:      p.Template,
		Messages:    []llm.Message{{Role: "user", Content: text}},
		Model:       p.Model,
		Temperature: p.Temperature,
		JSONMode:    true,
	})
	if err != nil {
		e.logger.Error("claim extraction completion failed", "error", err)
		return nil
	}
	if resp == nil || resp.Content == "" {
		e.logger.Warn("no claims data returned from model")
		return nil
	}

	extracted, err := parseExtractedClaims(resp.Content)
	if err != nil {
		e.logger.Error("failed to parse extracted claims", "error", err)
		return nil
	}

	claims := make([]model.Claim, 0, len(extracted.Claims))
	for _, content := range extracted.Claims {
		claims = append(claims, model.NewClaim(content))
	}

	e.logger.Info("claims extracted", "num_claims", len(claims))
	return claims
}

// parseExtractedClaims decodes the model response, repairing near-valid JSON
// and coercing bare sequences or scalars into the expected shape.
func parseExtractedClaims(raw string) (*model.ExtractedClaims, error) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, fmt.Errorf("repair response: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return nil, fmt.Errorf("parse repaired response: %w", err)
		}
	}

	switch v := parsed.(type) {
	case map[string]interface{}:
		if _, ok := v["claims"]; ok {
			return decodeExtractedClaims(v)
		}
		return nil, fmt.Errorf("response missing required 'claims' field")

	case []interface{}:
		claims, err := toStringSlice(v)
		if err != nil {
			return nil, err
		}
		return &model.ExtractedClaims{Claims: claims}, nil

	case string:
		return &model.ExtractedClaims{Claims: []string{v}}, nil

	default:
		return nil, fmt.Errorf("unexpected response shape %T", parsed)
	}
}

func decodeExtractedClaims(m map[string]interface{}) (*model.ExtractedClaims, error) {
	rawClaims, ok := m["claims"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("'claims' field is not a sequence")
	}

	claims, err := toStringSlice(rawClaims)
	if err != nil {
		return nil, err
	}

	extracted := &model.ExtractedClaims{Claims: claims}
	if original, ok := m["original"].(string); ok {
		extracted.Original = original
	}
	if english, ok := m["english"].(string); ok {
		extracted.English = english
	}
	return extracted, nil
}

func toStringSlice(items []interface{}) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("claim entry is not a string: %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
