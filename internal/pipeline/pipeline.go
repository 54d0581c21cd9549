package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/veracity/internal/extract"
	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/prompt"
	"github.com/ppiankov/veracity/internal/verify"
)

// Pipeline orchestrates the complete fact-check process: claim extraction
// followed by concurrent verification of each claim
type Pipeline struct {
	extractor   *extract.ClaimExtractor
	coordinator *verify.Coordinator
	tool        string
	concurrency int
	logger      *slog.Logger
}

// NewPipeline wires a pipeline from the given configuration. The registry is
// exposed so callers can register additional fact-check tools before use.
func NewPipeline(cfg *model.Config, registry *verify.Registry, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	prompts, err := newPromptStore(cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("prompt store: %w", err)
	}

	extractorBackend, err := llm.NewCompleter(llm.ConfigFromModel(cfg.Extractor))
	if err != nil {
		return nil, fmt.Errorf("extraction backend: %w", err)
	}
	if extractorBackend == nil {
		return nil, fmt.Errorf("no extraction backend configured")
	}

	if registry == nil {
		registry = verify.NewRegistry()
	}
	registry.Register("google", verify.NewGoogleVerifier(cfg.Google, logger))

	perplexityBackend, err := llm.NewCompleter(llm.ConfigFromModel(cfg.Perplexity))
	if err != nil {
		return nil, fmt.Errorf("perplexity backend: %w", err)
	}
	if perplexityBackend != nil {
		registry.Register("perplexity", verify.NewPerplexityVerifier(perplexityBackend, prompts, logger))
	}

	return &Pipeline{
		extractor:   extract.NewClaimExtractor(extractorBackend, prompts, logger),
		coordinator: verify.NewCoordinator(registry, logger),
		tool:        cfg.Tool,
		concurrency: cfg.ConcurrencyLimit,
		logger:      logger,
	}, nil
}

func newPromptStore(cfg model.PromptsConfig) (*prompt.Store, error) {
	if cfg.File == "" {
		return prompt.NewStaticStore(prompt.Defaults()), nil
	}
	// Fail fast on an unreadable file instead of serving empty snapshots
	if _, err := prompt.LoadFile(cfg.File); err != nil {
		return nil, err
	}
	return prompt.NewStore(prompt.FileLoader(cfg.File), cfg.TTL), nil
}

// Extract extracts claims from text
func (p *Pipeline) Extract(ctx context.Context, text string) []model.Claim {
	return p.extractor.Extract(ctx, text)
}

// VerifyAll verifies claims with the configured tool
func (p *Pipeline) VerifyAll(ctx context.Context, claims []model.Claim) []model.VerificationResult {
	return p.coordinator.VerifyAll(ctx, claims, p.tool, p.concurrency)
}

// ProcessSession runs a full fact-checking session: extraction, concurrent
// verification, completion stamp. A session that yields zero claims is
// completed immediately.
func (p *Pipeline) ProcessSession(ctx context.Context, session *model.Session) *model.Session {
	session.Claims = p.extractor.Extract(ctx, session.OriginalText)

	if len(session.Claims) == 0 {
		p.logger.Warn("no claims extracted in session", "session_id", session.SessionID)
		session.Complete()
		return session
	}

	p.logger.Info("starting verification of extracted claims",
		"session_id", session.SessionID, "num_claims", len(session.Claims))

	session.VerificationResults = p.coordinator.VerifyAll(ctx, session.Claims, p.tool, p.concurrency)
	session.Complete()

	p.logger.Info("fact checking completed",
		"session_id", session.SessionID, "num_results", len(session.VerificationResults))
	return session
}
