package llm

import (
	"context"

	"github.com/ppiankov/veracity/internal/model"
)

// Completer defines the interface for text-generation backends
type Completer interface {
	// Name returns the provider name
	Name() string

	// Complete issues a single completion request
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Message is one conversational message in a completion request
type Message struct {
	Role    string
	Content string
}

// Request contains the input for a completion call
type Request struct {
	// System is the system prompt content (prompt template)
	System string

	// Messages are the user-level messages, in order
	Messages []Message

	// Model is the specific model to use (provider-specific)
	Model string

	// Temperature for generation
	Temperature float32

	// JSONMode requests a constrained structured (JSON object) response
	JSONMode bool

	// MaxTokens limits the response length
	MaxTokens int
}

// Response contains the completion output
type Response struct {
	// Content is the raw textual content of the first choice
	Content string

	// Citations are source URLs attached to the response, if the
	// provider returns any (Perplexity does, OpenAI does not)
	Citations []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds completion backend configuration
type Config struct {
	// Provider name: "openai", "perplexity", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}
