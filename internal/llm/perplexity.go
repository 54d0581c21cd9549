package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PerplexityCompleter implements the Completer interface for Perplexity's
// OpenAI-compatible chat API. Hand-rolled because the response carries a
// citations array absent from standard chat completion clients.
type PerplexityCompleter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Perplexity API structures
type perplexityRequest struct {
	Model       string              `json:"model"`
	Messages    []perplexityMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Citations []string `json:"citations"`
	Usage     struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type perplexityError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewPerplexityCompleter creates a new Perplexity completer
func NewPerplexityCompleter(config Config) (*PerplexityCompleter, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Perplexity API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &PerplexityCompleter{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (c *PerplexityCompleter) Name() string {
	return "perplexity"
}

// Complete issues a single request to the Perplexity chat completions API
func (c *PerplexityCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	if model == "" {
		model = "sonar"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	messages := make([]perplexityMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, perplexityMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, perplexityMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(perplexityRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Perplexity API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr perplexityError
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("Perplexity API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("Perplexity API error: status %d", resp.StatusCode)
	}

	var pplxResp perplexityResponse
	if err := json.Unmarshal(respBody, &pplxResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if len(pplxResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Perplexity")
	}

	return &Response{
		Content:    strings.TrimSpace(pplxResp.Choices[0].Message.Content),
		Citations:  pplxResp.Citations,
		Model:      pplxResp.Model,
		TokensUsed: pplxResp.Usage.TotalTokens,
	}, nil
}
