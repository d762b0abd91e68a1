package agent

import (
	"context"
	"fmt"
	"log/slog"

	"mosaic/internal/history"
	"mosaic/internal/llm"
	"mosaic/internal/tools"
)

// maxGraphSteps bounds node transitions for a single request.
const maxGraphSteps = 12

const (
	nodePlan    = "plan"
	nodeAct     = "act"
	nodeRespond = "respond"
	nodeEnd     = "end"
)

const planPrompt = "Before answering, write a short numbered plan of the steps " +
	"needed to address the user's request. Output only the plan."

// GraphRunner walks an explicit state graph: plan the work, execute
// tool calls until the model stops requesting them, then produce the
// final answer. Each node returns the name of the next node; the walk
// is bounded so a misbehaving model cannot loop forever.
type GraphRunner struct {
	provider llm.Provider
	store    *history.Store
	registry *tools.Registry
}

func NewGraphRunner(provider llm.Provider, store *history.Store, registry *tools.Registry) *GraphRunner {
	return &GraphRunner{provider: provider, store: store, registry: registry}
}

type graphState struct {
	model     string
	sessionID string
	messages  []llm.Message
	toolSpecs []llm.ToolSpec
	emit      func(Event)
	final     *llm.Completion
}

func (r *GraphRunner) Generate(ctx context.Context, model, sessionID string, messages []llm.Message, emit func(Event)) (*llm.Completion, error) {
	state := &graphState{
		model:     model,
		sessionID: sessionID,
		messages:  withHistory(recallTurns(ctx, r.store, sessionID), messages),
		toolSpecs: tools.RuntimeExport(r.registry),
		emit:      emit,
	}

	nodes := map[string]func(context.Context, *graphState) (string, error){
		nodePlan:    r.plan,
		nodeAct:     r.act,
		nodeRespond: r.respond,
	}

	current := nodePlan
	for step := 0; current != nodeEnd; step++ {
		if err := ctx.Err(); err != nil {
			emit(Event{Type: EventError, Data: "request cancelled"})
			return nil, err
		}
		if step >= maxGraphSteps {
			slog.Warn("graph walk hit step limit", "session_id", sessionID, "node", current)
			break
		}

		node, ok := nodes[current]
		if !ok {
			return nil, fmt.Errorf("graph: no node %q", current)
		}

		next, err := node(ctx, state)
		if err != nil {
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, err
		}
		current = next
	}

	if state.final != nil {
		persistTurn(ctx, r.store, "graph", model, sessionID, messages, state.final.Content)
	}
	emit(Event{Type: EventDone})
	return state.final, nil
}

// plan asks the model for a step outline. The plan goes back into the
// conversation so later nodes can follow it.
func (r *GraphRunner) plan(ctx context.Context, state *graphState) (string, error) {
	planInput := append([]llm.Message{{Role: "system", Content: planPrompt}}, state.messages...)

	resp, err := r.provider.ChatStream(ctx, state.model, planInput, nil, func(string) {})
	if err != nil {
		return "", fmt.Errorf("plan node: %w", err)
	}

	if resp.Content != "" {
		state.messages = append(state.messages, llm.Message{
			Role:    "assistant",
			Content: "Plan:\n" + resp.Content,
		})
	}
	return nodeAct, nil
}

// act runs one tool-bound LLM call. Tool calls loop back into act;
// a plain answer moves on to respond.
func (r *GraphRunner) act(ctx context.Context, state *graphState) (string, error) {
	resp, err := r.provider.ChatStream(ctx, state.model, state.messages, state.toolSpecs, func(string) {})
	if err != nil {
		return "", fmt.Errorf("act node: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		return nodeRespond, nil
	}

	state.messages = append(state.messages, llm.Message{
		Role:      "assistant",
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})
	for _, call := range resp.ToolCalls {
		state.emit(Event{Type: EventToolCall, Data: map[string]string{
			"name":      call.Name,
			"arguments": call.Arguments,
		}})
		content := r.invoke(ctx, call)
		state.messages = append(state.messages, llm.Message{
			Role:       "tool",
			Content:    content,
			ToolCallID: call.ID,
		})
		state.emit(Event{Type: EventToolResult, Data: map[string]string{
			"name":    call.Name,
			"content": content,
		}})
	}
	return nodeAct, nil
}

// respond streams the final answer built from the accumulated context.
func (r *GraphRunner) respond(ctx context.Context, state *graphState) (string, error) {
	resp, err := r.provider.ChatStream(ctx, state.model, state.messages, nil, func(token string) {
		state.emit(Event{Type: EventToken, Data: token})
	})
	if err != nil {
		return "", fmt.Errorf("respond node: %w", err)
	}

	state.final = resp
	return nodeEnd, nil
}

func (r *GraphRunner) invoke(ctx context.Context, call llm.ToolCall) string {
	tool, ok := r.registry.Get(call.Name)
	if !ok {
		slog.Warn("unknown tool call", "name", call.Name)
		return "error: unknown tool"
	}

	result, err := withTrace(tool).Execute(ctx, call.Arguments)
	if err != nil {
		slog.Warn("tool execution failed", "name", call.Name, "error", err)
		return "error: " + err.Error()
	}
	return result
}
