package llm

import (
	"fmt"
	"strings"
)

// NewCompleter creates a new completion backend based on configuration
func NewCompleter(config Config) (Completer, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAICompleter(config)

	case "perplexity":
		return NewPerplexityCompleter(config)

	case "":
		// No provider configured - return nil (backend disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown completion provider: %s (supported: openai, perplexity)", config.Provider)
	}
}
