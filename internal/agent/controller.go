package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mosaic/internal/discovery"
)

// ModeConfig is one mode's current binding as reported to clients.
type ModeConfig struct {
	ModeID      string `json:"mode_id"`
	DisplayName string `json:"display_name"`
	Model       string `json:"model"`
	Active      bool   `json:"active"`
}

// Controller is the configuration surface over the pool: it answers
// what modes exist, what they are bound to, and applies changes. It
// also interprets the configurator's chat commands.
type Controller struct {
	pool   *Pool
	lister discovery.Lister
}

func NewController(pool *Pool, lister discovery.Lister) *Controller {
	return &Controller{pool: pool, lister: lister}
}

func (c *Controller) Configure(ctx context.Context, modeID, model string) error {
	return c.pool.Configure(ctx, modeID, model)
}

// CurrentConfig reports every declared mode with its bound model.
// Modes never touched show their default and Active false.
func (c *Controller) CurrentConfig() []ModeConfig {
	snapshot := c.pool.Snapshot()

	out := make([]ModeConfig, 0, len(Modes()))
	for _, mode := range Modes() {
		cfg := ModeConfig{
			ModeID:      mode.ID,
			DisplayName: mode.DisplayName,
			Model:       mode.DefaultModel,
		}
		if model, ok := snapshot[mode.ID]; ok {
			cfg.Model = model
			cfg.Active = true
		}
		out = append(out, cfg)
	}
	return out
}

const helpText = `Available commands:
- help: show this message
- list modes: show available agent modes
- list models: show models available on the backend
- configure <mode> <model>: bind a mode to a model
- recreate <mode>: drop and rebuild a mode's instance
- status: show the current mode/model bindings

Example: configure agent qwen2.5:14b`

// HandleCommand interprets one configurator message and returns the
// reply text. Unrecognized input gets the help text rather than an
// error; the configurator is a chat surface, not an API.
func (c *Controller) HandleCommand(ctx context.Context, input string) string {
	// Keywords match case-insensitively but model names keep their case.
	fields := strings.Fields(strings.TrimSpace(input))
	for i, f := range fields[:min(len(fields), 2)] {
		fields[i] = strings.ToLower(f)
	}
	if len(fields) == 0 {
		return helpText
	}

	switch {
	case fields[0] == "help":
		return helpText

	case fields[0] == "list" && len(fields) > 1 && fields[1] == "modes":
		var b strings.Builder
		b.WriteString("Available agent modes:\n")
		for _, mode := range Modes() {
			fmt.Fprintf(&b, "- %s %s (%s): %s\n", mode.Icon, mode.DisplayName, mode.ID, mode.Description)
		}
		return strings.TrimRight(b.String(), "\n")

	case fields[0] == "list" && len(fields) > 1 && fields[1] == "models":
		models, err := c.lister.ListModels(ctx)
		if err != nil {
			return "Could not reach the model backend: " + err.Error()
		}
		var b strings.Builder
		b.WriteString("Available models:\n")
		for _, m := range models {
			fmt.Fprintf(&b, "- %s (%.1fGB)\n", m.Name, float64(m.Size)/1e9)
		}
		return strings.TrimRight(b.String(), "\n")

	case fields[0] == "configure":
		if len(fields) != 3 {
			return "Usage: configure <mode> <model>\nExample: configure agent qwen2.5:14b"
		}
		modeID, model := fields[1], fields[2]
		if err := c.pool.Configure(ctx, modeID, model); err != nil {
			return "Configuration failed: " + err.Error()
		}
		return fmt.Sprintf("Configured %s to use %s.", modeID, model)

	case fields[0] == "recreate":
		if len(fields) != 2 {
			return "Usage: recreate <mode>"
		}
		if err := c.pool.Recreate(fields[1]); err != nil {
			return "Recreate failed: " + err.Error()
		}
		return fmt.Sprintf("Recreated the %s instance.", fields[1])

	case fields[0] == "status":
		var b strings.Builder
		b.WriteString("Current configuration:\n")
		configs := c.CurrentConfig()
		sort.Slice(configs, func(i, j int) bool { return configs[i].ModeID < configs[j].ModeID })
		for _, cfg := range configs {
			state := "default"
			if cfg.Active {
				state = "active"
			}
			fmt.Fprintf(&b, "- %s: %s (%s)\n", cfg.ModeID, cfg.Model, state)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	return "I did not understand that.\n\n" + helpText
}
