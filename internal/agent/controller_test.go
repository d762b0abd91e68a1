package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	factory := func(modeID string) (Runner, error) {
		return &fakeRunner{}, nil
	}
	lister := staticLister()
	return NewController(NewPool(factory, lister), lister)
}

func TestCurrentConfigDefaults(t *testing.T) {
	c := newTestController(t)

	configs := c.CurrentConfig()
	require.Len(t, configs, len(Modes()))
	for _, cfg := range configs {
		assert.False(t, cfg.Active)
		assert.NotEmpty(t, cfg.Model)
	}
}

func TestCurrentConfigReflectsChanges(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Configure(context.Background(), "graph", "qwen2.5:14b"))

	var found bool
	for _, cfg := range c.CurrentConfig() {
		if cfg.ModeID == "graph" {
			found = true
			assert.True(t, cfg.Active)
			assert.Equal(t, "qwen2.5:14b", cfg.Model)
		}
	}
	assert.True(t, found)
}

func TestHandleCommandHelp(t *testing.T) {
	c := newTestController(t)
	for _, input := range []string{"help", "", "HELP", "  help  "} {
		assert.Contains(t, c.HandleCommand(context.Background(), input), "Available commands")
	}
}

func TestHandleCommandListModes(t *testing.T) {
	c := newTestController(t)
	out := c.HandleCommand(context.Background(), "list modes")
	for _, mode := range Modes() {
		assert.Contains(t, out, mode.ID)
		assert.Contains(t, out, mode.DisplayName)
	}
}

func TestHandleCommandListModels(t *testing.T) {
	c := newTestController(t)
	out := c.HandleCommand(context.Background(), "list models")
	assert.Contains(t, out, "qwen2.5:7b")
	assert.Contains(t, out, "qwen2.5:14b")
}

func TestHandleCommandConfigure(t *testing.T) {
	c := newTestController(t)

	out := c.HandleCommand(context.Background(), "configure agent qwen2.5:14b")
	assert.Contains(t, out, "Configured agent")

	out = c.HandleCommand(context.Background(), "status")
	assert.Contains(t, out, "qwen2.5:14b")
	assert.Contains(t, out, "active")
}

func TestHandleCommandConfigureErrors(t *testing.T) {
	c := newTestController(t)

	out := c.HandleCommand(context.Background(), "configure agent")
	assert.Contains(t, out, "Usage:")

	out = c.HandleCommand(context.Background(), "configure oracle qwen2.5:7b")
	assert.Contains(t, out, "Configuration failed")

	out = c.HandleCommand(context.Background(), "configure agent gpt-oss:120b")
	assert.Contains(t, out, "Configuration failed")
}

func TestHandleCommandRecreate(t *testing.T) {
	c := newTestController(t)

	out := c.HandleCommand(context.Background(), "recreate agent")
	assert.Contains(t, out, "Recreated the agent instance")

	out = c.HandleCommand(context.Background(), "recreate oracle")
	assert.Contains(t, out, "Recreate failed")

	out = c.HandleCommand(context.Background(), "recreate")
	assert.Contains(t, out, "Usage: recreate <mode>")
}

func TestHandleCommandUnknown(t *testing.T) {
	c := newTestController(t)
	out := c.HandleCommand(context.Background(), "make me a sandwich")
	assert.Contains(t, out, "Available commands")
}
