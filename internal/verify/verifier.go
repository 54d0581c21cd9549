package verify

import (
	"context"
	"sync"

	"github.com/ppiankov/veracity/internal/model"
)

// Verifier defines the interface for fact-check providers
type Verifier interface {
	// Name returns the tool name the verifier registers under
	Name() string

	// Verify checks a single claim. Implementations that handle their own
	// failures return an error-carrying result and a nil error; a non-nil
	// error is converted into an error-carrying result at the coordinator's
	// per-claim boundary.
	Verify(ctx context.Context, claim model.Claim) (model.VerificationResult, error)
}

// Registry is a name-keyed mapping of fact-check tools. Registration is safe
// at any time before dispatch; the last writer for a name wins.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Verifier
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Verifier),
	}
}

// Register adds a verifier under the given name, overwriting any existing entry
func (r *Registry) Register(name string, v Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = v
}

// Get returns the verifier registered under the given name
func (r *Registry) Get(name string) (Verifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.tools[name]
	return v, ok
}

// Names returns the registered tool names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
