package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrDuplicate is returned when two tools register under one name.
// Duplicate names would let one tool silently shadow another, so this
// is fatal at startup.
var ErrDuplicate = errors.New("duplicate tool name")

type registered struct {
	tool     Tool
	category Category
	order    int
}

// Registry is the single source of truth for tool definitions. Both
// schema exporters read the same snapshot, which is what keeps the two
// export formats equivalent.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]registered
	sources []Source
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]registered)}
}

// Register adds one tool under the given category.
func (r *Registry) Register(t Tool, cat Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(t, cat)
}

func (r *Registry) registerLocked(t Tool, cat Category) error {
	if _, ok := r.byName[t.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, t.Name())
	}
	r.byName[t.Name()] = registered{tool: t, category: cat, order: len(r.byName)}
	slog.Debug("tool registered", "name", t.Name(), "category", cat.String())
	return nil
}

// Load runs discovery across all sources and registers everything.
// The source list is kept so Reload can re-run it.
func (r *Registry) Load(ctx context.Context, sources ...Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = sources
	return r.loadLocked(ctx)
}

func (r *Registry) loadLocked(ctx context.Context) error {
	sources := make([]Source, len(r.sources))
	copy(sources, r.sources)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Category() < sources[j].Category()
	})

	for _, src := range sources {
		tools, err := src.Discover(ctx)
		if err != nil {
			return fmt.Errorf("discovering %s tools: %w", src.Category(), err)
		}
		for _, t := range tools {
			if err := r.registerLocked(t, src.Category()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reload clears the registry and re-runs discovery. It serializes
// behind the registry lock; invocations that already hold a tool from
// an earlier All() snapshot complete against the old definitions.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.byName
	r.byName = make(map[string]registered)
	if err := r.loadLocked(ctx); err != nil {
		r.byName = old
		return fmt.Errorf("reload: %w", err)
	}
	slog.Info("tool registry reloaded", "tools", len(r.byName))
	return nil
}

// Get looks up one tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return reg.tool, true
}

// All returns a snapshot in registration order (builtin first, then
// community, custom, protocol-bridged).
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]registered, 0, len(r.byName))
	for _, reg := range r.byName {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].order < regs[j].order })

	out := make([]Tool, len(regs))
	for i, reg := range regs {
		out[i] = reg.tool
	}
	return out
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
