package prompt

import (
	"fmt"
	"os"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"
)

// Well-known prompt names used by the pipeline
const (
	ExtractClaims       = "extract_claims"
	PerplexityFactCheck = "perplexity_fact_check"
)

const snapshotKey = "snapshot"

// Prompt is a named template plus the model config it was authored for
type Prompt struct {
	Name        string  `yaml:"name"`
	Template    string  `yaml:"template"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// Snapshot is an immutable view of the prompt set. Pipeline calls receive a
// snapshot and never observe a mid-call reload.
type Snapshot struct {
	prompts map[string]Prompt
}

// Get returns the prompt with the given name
func (s Snapshot) Get(name string) (Prompt, bool) {
	p, ok := s.prompts[name]
	return p, ok
}

// Names returns the names of all prompts in the snapshot
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.prompts))
	for name := range s.prompts {
		names = append(names, name)
	}
	return names
}

// Loader produces the current prompt set from its backing source
type Loader func() ([]Prompt, error)

// Store hands out prompt snapshots, reloading from its Loader when the
// cached snapshot expires. A failed reload keeps serving the last good
// snapshot rather than dropping prompts mid-flight.
type Store struct {
	cache  *gocache.Cache
	loader Loader

	mu   sync.Mutex
	last Snapshot
}

// NewStore creates a store with the given loader and snapshot TTL
func NewStore(loader Loader, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = time.Minute
	}
	return &Store{
		cache:  gocache.New(ttl, 2*ttl),
		loader: loader,
	}
}

// NewStaticStore creates a store that always serves the given prompts
func NewStaticStore(prompts []Prompt) *Store {
	return NewStore(func() ([]Prompt, error) { return prompts, nil }, gocache.NoExpiration)
}

// Snapshot returns the current prompt snapshot
func (s *Store) Snapshot() Snapshot {
	if cached, found := s.cache.Get(snapshotKey); found {
		return cached.(Snapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have reloaded while we waited for the lock
	if cached, found := s.cache.Get(snapshotKey); found {
		return cached.(Snapshot)
	}

	prompts, err := s.loader()
	if err != nil {
		// Serve the previous snapshot; an empty one if there never was any
		return s.last
	}

	byName := make(map[string]Prompt, len(prompts))
	for _, p := range prompts {
		byName[p.Name] = p
	}
	snap := Snapshot{prompts: byName}

	s.cache.SetDefault(snapshotKey, snap)
	s.last = snap
	return snap
}

// LoadFile reads prompt templates from a YAML file
func LoadFile(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var prompts []Prompt
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}

	for _, p := range prompts {
		if p.Name == "" {
			return nil, fmt.Errorf("prompts file %s: prompt with empty name", path)
		}
	}

	return prompts, nil
}

// FileLoader returns a Loader backed by a YAML file
func FileLoader(path string) Loader {
	return func() ([]Prompt, error) {
		return LoadFile(path)
	}
}

// Defaults returns the built-in prompt set
func Defaults() []Prompt {
	return []Prompt{
		{
			Name:        ExtractClaims,
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Template: `You extract discrete factual assertions from user text.

Respond with a JSON object of the shape:
{"original": "<the input text>", "english": "<the input translated to English>", "claims": ["<claim 1>", "<claim 2>", ...]}

Rules:
1. Each claim must be a single, independently verifiable factual assertion.
2. Preserve the order in which claims appear in the text.
3. Ignore opinions, questions, and instructions.
4. If the text contains no factual assertions, return an empty claims array.`,
		},
		{
			Name:        PerplexityFactCheck,
			Model:       "sonar",
			Temperature: 0.1,
			Template: `You are a fact-checking assistant. Verify the claim given by the user
against current, reputable sources.

Respond with a JSON object of the shape:
{"claim_reviews": [{"claim": "<the claim>", "verification": {"source": [{"name": "<source name>", "date": "<publication date if known>", "content": "<what the source says>", "url": "<source url if known>"}], "conclusion": "<your verdict with reasoning>"}}]}

Rules:
1. Base the conclusion only on the listed sources.
2. If no reliable information exists, return an empty claim_reviews array.
3. Respond with JSON only, no prose around it.`,
		},
	}
}
