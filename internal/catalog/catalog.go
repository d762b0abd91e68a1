// Package catalog derives the set of addressable virtual models from
// the cross-product of agent modes and discovered backend models. The
// catalog is a rebuilt view, never patched in place: a refresh after a
// model disappears simply drops its entries, and stale virtual ids
// resolve to ErrNotFound.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mosaic/internal/discovery"
)

// ConfiguratorID is the reserved virtual id that routes to the
// configuration command interpreter instead of an agent.
const ConfiguratorID = "configurator"

var (
	ErrNotFound  = errors.New("virtual model not found")
	ErrEmpty     = errors.New("catalog has no agent-model combinations")
	ErrCollision = errors.New("virtual id collision")
)

// Mode is the static descriptor of one agent mode.
type Mode struct {
	ID           string
	DisplayName  string
	Description  string
	Icon         string
	Features     []string
	UseCases     []string
	DefaultModel string
}

// Entry is one addressable combination. Configurator is true only for
// the reserved entry, which has no backend model.
type Entry struct {
	VirtualID    string
	ModeID       string
	BackendModel string
	Label        string
	Description  string
	SizeBytes    int64
	Configurator bool
}

// Sanitize lowercases s, maps every rune outside [a-z0-9-] to '-',
// collapses separator runs and trims the edges. Distinct inputs may
// sanitize to the same token; Build guards against that.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevDash := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// VirtualID derives the addressable id for one (mode, model) pair.
func VirtualID(modeID, modelName string) string {
	return Sanitize(modeID) + "-" + Sanitize(modelName)
}

// Build computes the full entry list in mode-major order, with the
// configurator appended last. An empty cross-product returns ErrEmpty
// together with a configurator-only list: the configurator stays
// addressable so operators can still talk to it while no combinations
// exist. ErrCollision is returned when sanitization maps two distinct
// pairs to one id.
func Build(modes []Mode, models []discovery.Model) ([]Entry, error) {
	if len(modes) == 0 || len(models) == 0 {
		return []Entry{configuratorEntry()}, ErrEmpty
	}

	entries := make([]Entry, 0, len(modes)*len(models)+1)
	seen := make(map[string]int, len(modes)*len(models))

	for _, mode := range modes {
		for _, model := range models {
			id := VirtualID(mode.ID, model.Name)
			if prev, ok := seen[id]; ok {
				p := entries[prev]
				return nil, fmt.Errorf("%w: %q maps both (%s, %s) and (%s, %s)",
					ErrCollision, id, p.ModeID, p.BackendModel, mode.ID, model.Name)
			}
			seen[id] = len(entries)
			entries = append(entries, Entry{
				VirtualID:    id,
				ModeID:       mode.ID,
				BackendModel: model.Name,
				Label:        label(mode, model),
				Description:  fmt.Sprintf("%s, served by %s", mode.Description, model.Name),
				SizeBytes:    model.Size,
			})
		}
	}

	entries = append(entries, configuratorEntry())
	return entries, nil
}

func configuratorEntry() Entry {
	return Entry{
		VirtualID:    ConfiguratorID,
		ModeID:       "config",
		Label:        "🔧 Agent Configurator",
		Description:  "Configure and inspect agent modes and models",
		Configurator: true,
	}
}

func label(mode Mode, model discovery.Model) string {
	l := fmt.Sprintf("%s %s + %s", mode.Icon, mode.DisplayName, model.Name)
	if model.Size > 0 {
		l += fmt.Sprintf(" (%.1fGB)", float64(model.Size)/1e9)
	}
	return l
}

// Catalog is the process-wide, refreshable view. Refresh rebuilds the
// entry list from discovery; lookups serve the last built view.
type Catalog struct {
	modes  []Mode
	lister discovery.Lister

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]Entry
}

func New(modes []Mode, lister discovery.Lister) *Catalog {
	return &Catalog{modes: modes, lister: lister}
}

// Refresh rebuilds the catalog from the current model list. When
// discovery fails the static default list keeps the catalog usable;
// the failure is only surfaced as a warning.
func (c *Catalog) Refresh(ctx context.Context) error {
	models, err := c.lister.ListModels(ctx)
	if err != nil {
		slog.Warn("model discovery failed, falling back to default models", "error", err)
		models = discovery.Defaults()
	}

	entries, err := Build(c.modes, models)
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			return fmt.Errorf("building catalog: %w", err)
		}
		// Degraded: no combinations, but the configurator-only view
		// still serves so the backend can be inspected and fixed.
		slog.Warn("catalog has no agent-model combinations, serving configurator only")
	}

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.VirtualID] = e
	}

	c.mu.Lock()
	c.entries = entries
	c.byID = byID
	c.mu.Unlock()

	slog.Info("catalog rebuilt", "modes", len(c.modes), "models", len(models), "entries", len(entries))
	return nil
}

// Entries returns the current view in build order.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Resolve maps a virtual id back to its entry.
func (c *Catalog) Resolve(virtualID string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[virtualID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, virtualID)
	}
	return e, nil
}

// Modes returns the static mode descriptors the catalog was built with.
func (c *Catalog) Modes() []Mode {
	return c.modes
}
