package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/db"
	"mosaic/internal/history"
	"mosaic/internal/llm"
	"mosaic/internal/tools"
)

// scriptedProvider plays back a fixed sequence of completions and
// records the message history it was handed.
type scriptedProvider struct {
	responses []*llm.Completion
	calls     [][]llm.Message
}

func (p *scriptedProvider) ChatStream(ctx context.Context, model string, messages []llm.Message, specs []llm.ToolSpec, onToken func(string)) (*llm.Completion, error) {
	p.calls = append(p.calls, append([]llm.Message(nil), messages...))
	resp := p.responses[len(p.calls)-1]
	if resp.Content != "" {
		onToken(resp.Content)
	}
	return resp, nil
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, r.Register(&tools.Calculator{}, tools.CategoryBuiltin))
	return r
}

func TestReactRunnerToolLoop(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{
			ID:        "call_0",
			Name:      "calculator",
			Arguments: `{"expression": "2 + 3"}`,
		}}},
		{Content: "The answer is 5"},
	}}

	runner := NewReactRunner(provider, nil, testRegistry(t))

	var events []Event
	resp, err := runner.Generate(context.Background(), "qwen2.5:7b", "",
		[]llm.Message{{Role: "user", Content: "what is 2 + 3?"}},
		func(ev Event) { events = append(events, ev) })
	require.NoError(t, err)
	assert.Equal(t, "The answer is 5", resp.Content)
	require.Len(t, provider.calls, 2)

	// second call carries the assistant tool call and the tool result
	second := provider.calls[1]
	require.Len(t, second, 3)
	assert.Equal(t, "assistant", second[1].Role)
	require.Len(t, second[1].ToolCalls, 1)
	assert.Equal(t, "tool", second[2].Role)
	assert.Equal(t, "5", second[2].Content)
	assert.Equal(t, "call_0", second[2].ToolCallID)

	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventToolCall, EventToolResult, EventToken, EventDone}, types)
}

func TestReactRunnerUnknownTool(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call_0", Name: "teleport", Arguments: "{}"}}},
		{Content: "I cannot do that"},
	}}

	runner := NewReactRunner(provider, nil, testRegistry(t))

	resp, err := runner.Generate(context.Background(), "qwen2.5:7b", "",
		[]llm.Message{{Role: "user", Content: "teleport me"}}, func(Event) {})
	require.NoError(t, err)
	assert.Equal(t, "I cannot do that", resp.Content)

	// the failure went back to the model as a tool message
	second := provider.calls[1]
	assert.Contains(t, second[2].Content, "unknown tool")
}

func TestChainRunnerStreams(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Completion{{Content: "hello there"}}}
	runner := NewChainRunner(provider, nil)

	var tokens []string
	resp, err := runner.Generate(context.Background(), "qwen2.5:7b", "",
		[]llm.Message{{Role: "user", Content: "hi"}},
		func(ev Event) {
			if ev.Type == EventToken {
				tokens = append(tokens, ev.Data.(string))
			}
		})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, []string{"hello there"}, tokens)
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { database.Close() })
	return history.NewStore(database)
}

func TestChainRunnerRecallsSessionHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureSession(ctx, "s1"))
	require.NoError(t, store.SaveTurn(ctx, history.Turn{
		SessionID:   "s1",
		ModeID:      "chain",
		Model:       "qwen2.5:7b",
		UserMessage: "my name is Ada",
		Reply:       "Nice to meet you, Ada",
	}))

	provider := &scriptedProvider{responses: []*llm.Completion{{Content: "Your name is Ada"}}}
	runner := NewChainRunner(provider, store)

	_, err := runner.Generate(ctx, "qwen2.5:7b", "s1",
		[]llm.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "what is my name?"},
		}, func(Event) {})
	require.NoError(t, err)

	// prior turns are spliced in after the system prompt
	require.Len(t, provider.calls, 1)
	sent := provider.calls[0]
	require.Len(t, sent, 4)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, "my name is Ada", sent[1].Content)
	assert.Equal(t, "assistant", sent[2].Role)
	assert.Equal(t, "Nice to meet you, Ada", sent[2].Content)
	assert.Equal(t, "what is my name?", sent[3].Content)

	// and the new exchange is persisted behind the old one
	turns, err := store.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Your name is Ada", turns[1].Reply)
}

func TestReactRunnerRecallsSessionHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureSession(ctx, "s1"))
	require.NoError(t, store.SaveTurn(ctx, history.Turn{
		SessionID: "s1", ModeID: "agent", Model: "qwen2.5:7b",
		UserMessage: "remember 41", Reply: "Noted: 41",
	}))

	provider := &scriptedProvider{responses: []*llm.Completion{{Content: "42"}}}
	runner := NewReactRunner(provider, store, testRegistry(t))

	_, err := runner.Generate(ctx, "qwen2.5:7b", "s1",
		[]llm.Message{{Role: "user", Content: "add one to it"}}, func(Event) {})
	require.NoError(t, err)

	sent := provider.calls[0]
	require.Len(t, sent, 3)
	assert.Equal(t, "remember 41", sent[0].Content)
	assert.Equal(t, "Noted: 41", sent[1].Content)
	assert.Equal(t, "add one to it", sent[2].Content)
}

func TestGraphRunnerWalksToCompletion(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Completion{
		{Content: "1. compute the sum"},                 // plan
		{ToolCalls: []llm.ToolCall{{ID: "call_0", Name: "calculator", Arguments: `{"expression": "2 + 3"}`}}}, // act
		{Content: ""},               // act again, no more tools
		{Content: "The sum is 5"},   // respond
	}}

	runner := NewGraphRunner(provider, nil, testRegistry(t))

	resp, err := runner.Generate(context.Background(), "qwen2.5:7b", "",
		[]llm.Message{{Role: "user", Content: "add 2 and 3"}}, func(Event) {})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "The sum is 5", resp.Content)
	assert.Len(t, provider.calls, 4)
}
