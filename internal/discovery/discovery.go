package discovery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrUnreachable means the serving backend could not be contacted
	// (connection failure or timeout).
	ErrUnreachable = errors.New("model provider unreachable")
	// ErrMalformed means the backend answered but the response could
	// not be decoded.
	ErrMalformed = errors.New("model provider returned malformed response")
)

// Model describes one backend model as reported by the serving engine.
type Model struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Provider string `json:"provider,omitempty"`
}

// Lister enumerates the currently served models. Implementations do
// network I/O; callers are expected to go through Cached.
type Lister interface {
	ListModels(ctx context.Context) ([]Model, error)
}

// Defaults returns the static fallback list used when discovery fails,
// so the catalog never goes empty just because the backend is down.
func Defaults() []Model {
	return []Model{
		{Name: "qwen2.5:7b", Size: 4_000_000_000},
		{Name: "qwen2.5:14b", Size: 8_000_000_000},
		{Name: "llama3.1:8b", Size: 5_000_000_000},
		{Name: "mistral:7b", Size: 4_000_000_000},
	}
}

// Cached wraps a Lister with a bounded refresh interval. The last
// successful result is served while fresh and kept as a fallback when
// a refresh fails.
type Cached struct {
	lister Lister
	ttl    time.Duration

	mu      sync.Mutex
	models  []Model
	fetched time.Time
}

func NewCached(lister Lister, ttl time.Duration) *Cached {
	return &Cached{lister: lister, ttl: ttl}
}

func (c *Cached) ListModels(ctx context.Context) ([]Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil && time.Since(c.fetched) < c.ttl {
		return c.models, nil
	}

	models, err := c.lister.ListModels(ctx)
	if err != nil {
		if c.models != nil {
			slog.Warn("model discovery failed, serving stale list", "error", err, "age", time.Since(c.fetched))
			return c.models, nil
		}
		return nil, err
	}

	c.models = models
	c.fetched = time.Now()
	return models, nil
}

// Invalidate drops the cached list so the next call refetches.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = nil
	c.fetched = time.Time{}
}

// Static is a fixed-list Lister, used for the fallback path and tests.
type Static struct {
	Models []Model
}

func (s Static) ListModels(context.Context) ([]Model, error) {
	return s.Models, nil
}
