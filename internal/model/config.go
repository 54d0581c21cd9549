package model

import "time"

// Config holds the full veracity configuration
type Config struct {
	// Tool is the active fact-check tool name ("perplexity" or "google")
	Tool string `yaml:"tool"`

	// ConcurrencyLimit caps concurrent claim verifications per session
	ConcurrencyLimit int `yaml:"concurrency_limit"`

	Extractor  LLMConfig     `yaml:"extractor"`
	Perplexity LLMConfig     `yaml:"perplexity"`
	Google     GoogleConfig  `yaml:"google"`
	Prompts    PromptsConfig `yaml:"prompts"`
	HTTP       HTTPConfig    `yaml:"http"`
}

// LLMConfig configures one text-generation backend
type LLMConfig struct {
	// Provider name: "openai", "perplexity", ""
	Provider string `yaml:"provider"`

	// Model name (provider-specific); empty means the prompt's model
	Model string `yaml:"model"`

	// APIKey (recommended to set via environment variables)
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL for custom endpoints
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout for API requests, seconds
	Timeout int `yaml:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens"`
}

// GoogleConfig configures the Google Fact Check Tools client
type GoogleConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout for API requests, seconds
	Timeout int `yaml:"timeout"`

	// PageSize is the maximum number of matched claims per search
	PageSize int `yaml:"page_size"`

	// Client-side QPS protection
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// PromptsConfig configures the prompt template store
type PromptsConfig struct {
	// File is an optional YAML file with prompt templates;
	// empty means built-in defaults
	File string `yaml:"file,omitempty"`

	// TTL controls how long a loaded snapshot stays fresh
	TTL time.Duration `yaml:"ttl"`
}

// HTTPConfig configures the URL ingestion fetcher
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tool:             "perplexity",
		ConcurrencyLimit: 10,
		Extractor: LLMConfig{
			Provider:  "openai",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Perplexity: LLMConfig{
			Provider:  "perplexity",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Google: GoogleConfig{
			Timeout:           15,
			PageSize:          10,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Prompts: PromptsConfig{
			TTL: time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Veracity/0.1 (+https://github.com/ppiankov/veracity)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
	}
}
