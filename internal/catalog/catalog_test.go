package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/discovery"
)

func testModes() []Mode {
	return []Mode{
		{ID: "chain", DisplayName: "Chain Agent", Description: "Single-pass agent", Icon: "🔗"},
		{ID: "agent", DisplayName: "Tool Agent", Description: "Tool-calling agent", Icon: "🛠️"},
	}
}

func testModels() []discovery.Model {
	return []discovery.Model{
		{Name: "qwen2.5:7b", Size: 4_000_000_000},
		{Name: "llama3.1:8b", Size: 5_000_000_000},
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"qwen2.5:7b":    "qwen2-5-7b",
		"Qwen2.5:7B":    "qwen2-5-7b",
		"llama3.1:8b":   "llama3-1-8b",
		"a..b":          "a-b",
		"  spaced out ": "spaced-out",
		"---":           "",
		"plain":         "plain",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestVirtualID(t *testing.T) {
	assert.Equal(t, "chain-qwen2-5-7b", VirtualID("chain", "qwen2.5:7b"))
	assert.Equal(t, "agent-mistral-7b", VirtualID("agent", "mistral:7b"))
}

func TestBuild(t *testing.T) {
	entries, err := Build(testModes(), testModels())
	require.NoError(t, err)

	// cross-product plus the configurator
	require.Len(t, entries, 2*2+1)

	// mode-major order, configurator last
	assert.Equal(t, "chain-qwen2-5-7b", entries[0].VirtualID)
	assert.Equal(t, "chain-llama3-1-8b", entries[1].VirtualID)
	assert.Equal(t, "agent-qwen2-5-7b", entries[2].VirtualID)

	last := entries[len(entries)-1]
	assert.True(t, last.Configurator)
	assert.Equal(t, ConfiguratorID, last.VirtualID)
	assert.Empty(t, last.BackendModel)

	first := entries[0]
	assert.Equal(t, "chain", first.ModeID)
	assert.Equal(t, "qwen2.5:7b", first.BackendModel)
	assert.Equal(t, int64(4_000_000_000), first.SizeBytes)
	assert.Contains(t, first.Label, "Chain Agent")
	assert.Contains(t, first.Label, "4.0GB")
}

func TestBuildEmpty(t *testing.T) {
	entries, err := Build(nil, testModels())
	assert.ErrorIs(t, err, ErrEmpty)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Configurator)

	entries, err = Build(testModes(), nil)
	assert.ErrorIs(t, err, ErrEmpty)
	require.Len(t, entries, 1)
	assert.Equal(t, ConfiguratorID, entries[0].VirtualID)
}

func TestCatalogConfiguratorSurvivesEmptyDiscovery(t *testing.T) {
	// the backend is reachable but has no models pulled
	cat := New(testModes(), discovery.Static{Models: nil})
	require.NoError(t, cat.Refresh(context.Background()))

	entries := cat.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Configurator)

	got, err := cat.Resolve(ConfiguratorID)
	require.NoError(t, err)
	assert.True(t, got.Configurator)
}

func TestBuildCollision(t *testing.T) {
	// "qwen2.5:7b" and "qwen2-5:7b" sanitize to the same token
	models := []discovery.Model{
		{Name: "qwen2.5:7b"},
		{Name: "qwen2-5:7b"},
	}
	_, err := Build(testModes(), models)
	require.ErrorIs(t, err, ErrCollision)
	assert.Contains(t, err.Error(), "chain-qwen2-5-7b")
}

type failingLister struct{}

func (failingLister) ListModels(context.Context) ([]discovery.Model, error) {
	return nil, errors.New("connection refused")
}

func TestCatalogResolveRoundTrip(t *testing.T) {
	cat := New(testModes(), discovery.Static{Models: testModels()})
	require.NoError(t, cat.Refresh(context.Background()))

	for _, e := range cat.Entries() {
		got, err := cat.Resolve(e.VirtualID)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestCatalogResolveNotFound(t *testing.T) {
	cat := New(testModes(), discovery.Static{Models: testModels()})
	require.NoError(t, cat.Refresh(context.Background()))

	_, err := cat.Resolve("chain-no-such-model")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogFallbackOnDiscoveryFailure(t *testing.T) {
	cat := New(testModes(), failingLister{})
	require.NoError(t, cat.Refresh(context.Background()))

	entries := cat.Entries()
	require.NotEmpty(t, entries)

	// the default models are addressable even with discovery down
	_, err := cat.Resolve("chain-qwen2-5-7b")
	assert.NoError(t, err)
	_, err = cat.Resolve(ConfiguratorID)
	assert.NoError(t, err)
}

func TestCatalogRebuildDropsStaleEntries(t *testing.T) {
	lister := &switchableLister{models: testModels()}
	cat := New(testModes(), lister)
	require.NoError(t, cat.Refresh(context.Background()))

	_, err := cat.Resolve("chain-llama3-1-8b")
	require.NoError(t, err)

	lister.models = []discovery.Model{{Name: "qwen2.5:7b", Size: 4_000_000_000}}
	require.NoError(t, cat.Refresh(context.Background()))

	_, err = cat.Resolve("chain-llama3-1-8b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cat.Resolve("chain-qwen2-5-7b")
	assert.NoError(t, err)
}

type switchableLister struct {
	models []discovery.Model
}

func (s *switchableLister) ListModels(context.Context) ([]discovery.Model, error) {
	return s.models, nil
}
