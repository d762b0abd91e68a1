package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/llm"
)

type stubTool struct {
	name     string
	required []string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) Schema() llm.ParameterSchema {
	props := make(map[string]llm.Property, len(s.required))
	for _, r := range s.required {
		props[r] = llm.Property{Type: "string"}
	}
	return llm.ParameterSchema{Type: "object", Properties: props, Required: s.required}
}
func (s *stubTool) Execute(context.Context, string) (string, error) { return "ok", nil }

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "echo"}, CategoryBuiltin))

	err := r.Register(&stubTool{name: "echo"}, CategoryCustom)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, r.Len())
}

func TestLoadOrdersByCategory(t *testing.T) {
	r := NewRegistry()
	err := r.Load(context.Background(),
		FixedSource{Cat: CategoryCustom, Tools: []Tool{&stubTool{name: "custom"}}},
		FixedSource{Cat: CategoryBuiltin, Tools: []Tool{&stubTool{name: "b1"}, &stubTool{name: "b2"}}},
		FixedSource{Cat: CategoryCommunity, Tools: []Tool{&stubTool{name: "community"}}},
	)
	require.NoError(t, err)

	var names []string
	for _, tool := range r.All() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"b1", "b2", "community", "custom"}, names)
}

func TestLoadDuplicateAcrossSourcesFails(t *testing.T) {
	r := NewRegistry()
	err := r.Load(context.Background(),
		FixedSource{Cat: CategoryBuiltin, Tools: []Tool{&stubTool{name: "echo"}}},
		FixedSource{Cat: CategoryCustom, Tools: []Tool{&stubTool{name: "echo"}}},
	)
	assert.ErrorIs(t, err, ErrDuplicate)
}

// flakySource fails discovery once armed.
type flakySource struct {
	tools []Tool
	fail  *bool
}

func (f flakySource) Category() Category { return CategoryCommunity }
func (f flakySource) Discover(context.Context) ([]Tool, error) {
	if *f.fail {
		return nil, errors.New("upstream gone")
	}
	return f.tools, nil
}

func TestReloadKeepsOldSetOnFailure(t *testing.T) {
	fail := false
	r := NewRegistry()
	src := flakySource{tools: []Tool{&stubTool{name: "echo"}}, fail: &fail}
	require.NoError(t, r.Load(context.Background(), src))

	fail = true
	err := r.Reload(context.Background())
	require.Error(t, err)

	// the pre-reload set still serves
	_, ok := r.Get("echo")
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestReloadPicksUpNewTools(t *testing.T) {
	r := NewRegistry()
	src := &mutableSource{tools: []Tool{&stubTool{name: "one"}}}
	require.NoError(t, r.Load(context.Background(), src))

	src.tools = append(src.tools, &stubTool{name: "two"})
	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, 2, r.Len())
}

type mutableSource struct {
	tools []Tool
}

func (m *mutableSource) Category() Category                    { return CategoryBuiltin }
func (m *mutableSource) Discover(context.Context) ([]Tool, error) { return m.tools, nil }

func TestExportsStayEquivalent(t *testing.T) {
	r := NewRegistry()
	err := r.Load(context.Background(),
		FixedSource{Cat: CategoryBuiltin, Tools: []Tool{
			&Calculator{},
			&Datetime{},
			&stubTool{name: "noargs"},
			&stubTool{name: "twoargs", required: []string{"a", "b"}},
		}},
	)
	require.NoError(t, err)

	runtime := RuntimeExport(r)
	frontend := FrontendExport(r)
	require.Equal(t, len(runtime), len(frontend))

	for i := range runtime {
		assert.Equal(t, runtime[i].Name, frontend[i].Name)
		assert.Equal(t, runtime[i].Description, frontend[i].Description)
		assert.ElementsMatch(t, runtime[i].Parameters.Required, frontend[i].Parameters.Required)

		for name, prop := range runtime[i].Parameters.Properties {
			got, ok := frontend[i].Parameters.Properties[name]
			require.True(t, ok, "tool %s property %s missing from frontend export", runtime[i].Name, name)
			assert.Equal(t, prop, got)
		}
		assert.Len(t, frontend[i].Parameters.Properties, len(runtime[i].Parameters.Properties))
	}
}

func TestFrontendExportNormalizesNils(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&nilSchemaTool{}, CategoryCustom))

	out := FrontendExport(r)
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].Parameters.Required)
	assert.NotNil(t, out[0].Parameters.Properties)
}

type nilSchemaTool struct{}

func (n *nilSchemaTool) Name() string                { return "bare" }
func (n *nilSchemaTool) Description() string         { return "no parameters" }
func (n *nilSchemaTool) Schema() llm.ParameterSchema { return llm.ParameterSchema{Type: "object"} }
func (n *nilSchemaTool) Execute(context.Context, string) (string, error) {
	return "", nil
}
