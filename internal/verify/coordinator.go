package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ppiankov/veracity/internal/model"
)

// DefaultConcurrencyLimit caps concurrent verifications when no explicit
// limit is configured
const DefaultConcurrencyLimit = 10

// Coordinator fans claim verification out across a bounded number of
// concurrent tasks and collects exactly one result per claim. A failure in
// one task never affects its siblings; the per-claim boundary converts
// errors into error-carrying results.
type Coordinator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator dispatching through the given registry
func NewCoordinator(registry *Registry, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		registry: registry,
		logger:   logger,
	}
}

// VerifyAll verifies all claims with the named tool, running at most
// concurrencyLimit verifications at once. It returns one result per input
// claim; correlation is by ClaimID, not position.
func (c *Coordinator) VerifyAll(ctx context.Context, claims []model.Claim, toolName string, concurrencyLimit int) []model.VerificationResult {
	if len(claims) == 0 {
		return []model.VerificationResult{}
	}

	if concurrencyLimit <= 0 {
		concurrencyLimit = DefaultConcurrencyLimit
	}

	results := make([]model.VerificationResult, len(claims))
	var wg sync.WaitGroup

	// Limiter is scoped to this invocation so concurrent sessions do not
	// starve each other
	semaphore := make(chan struct{}, concurrencyLimit)

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, cl model.Claim) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx] = c.verifySingle(ctx, cl, toolName)
		}(i, claim)
	}

	wg.Wait()

	c.logger.Info("claims verification completed",
		"total_claims", len(claims), "tool", toolName)
	return results
}

// verifySingle verifies one claim, converting every failure mode into an
// error-carrying result
func (c *Coordinator) verifySingle(ctx context.Context, claim model.Claim, toolName string) (result model.VerificationResult) {
	// A panicking verifier must not take down the batch
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("verifier panic", "tool", toolName, "claim_id", claim.ID, "panic", r)
			result = model.ErrorResult(claim, fmt.Sprintf("verifier panic: %v", r))
		}
	}()

	verifier, ok := c.registry.Get(toolName)
	if !ok {
		c.logger.Error("unknown fact-check tool", "tool", toolName, "claim_id", claim.ID)
		return model.ErrorResult(claim, "Unknown fact-check tool: "+toolName)
	}

	result, err := verifier.Verify(ctx, claim)
	if err != nil {
		c.logger.Error("fact-check failed", "tool", toolName, "claim_id", claim.ID, "error", err)
		return model.ErrorResult(claim, err.Error())
	}
	return result
}
