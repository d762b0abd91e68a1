package agent

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"mosaic/internal/history"
	"mosaic/internal/llm"
	"mosaic/internal/tools"
	"mosaic/internal/trace"
)

// maxReactIterations bounds the think/act cycle against models that
// keep requesting tools.
const maxReactIterations = 10

// ReactRunner implements the tool-calling loop. Each iteration is a
// single LLM call with the full tool export bound; the loop ends when
// the model returns no tool calls or the context is cancelled. Tool
// errors go back into context so the model can adapt.
type ReactRunner struct {
	provider llm.Provider
	store    *history.Store
	registry *tools.Registry
}

func NewReactRunner(provider llm.Provider, store *history.Store, registry *tools.Registry) *ReactRunner {
	return &ReactRunner{provider: provider, store: store, registry: registry}
}

func (r *ReactRunner) Generate(ctx context.Context, model, sessionID string, messages []llm.Message, emit func(Event)) (*llm.Completion, error) {
	ctx, span := trace.Tracer().Start(ctx, "agent.react.generate",
		oteltrace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	// The export is taken per request so a registry reload is picked
	// up on the next turn.
	toolSpecs := tools.RuntimeExport(r.registry)

	input := withHistory(recallTurns(ctx, r.store, sessionID), messages)

	var resp *llm.Completion
	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			emit(Event{Type: EventError, Data: "request cancelled"})
			span.SetStatus(codes.Error, "cancelled")
			return nil, err
		}
		if iteration >= maxReactIterations {
			slog.Warn("react loop hit iteration limit", "session_id", sessionID, "iterations", iteration)
			break
		}

		var err error
		resp, err = r.provider.ChatStream(ctx, model, input, toolSpecs, func(token string) {
			emit(Event{Type: EventToken, Data: token})
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			break
		}

		input = append(input, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		input = append(input, r.act(ctx, resp.ToolCalls, emit)...)
	}

	if resp != nil {
		persistTurn(ctx, r.store, "agent", model, sessionID, messages, resp.Content)
	}
	emit(Event{Type: EventDone})
	return resp, nil
}

// act executes tool calls in parallel and returns their results as
// tool messages for the next iteration.
func (r *ReactRunner) act(ctx context.Context, calls []llm.ToolCall, emit func(Event)) []llm.Message {
	for _, call := range calls {
		emit(Event{Type: EventToolCall, Data: map[string]string{
			"name":      call.Name,
			"arguments": call.Arguments,
		}})
	}

	var wg sync.WaitGroup
	results := make([]llm.Message, len(calls))

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()

			content := r.invoke(ctx, call)
			results[i] = llm.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: call.ID,
			}
			emit(Event{Type: EventToolResult, Data: map[string]string{
				"name":    call.Name,
				"content": content,
			}})
		}(i, call)
	}

	wg.Wait()
	return results
}

func (r *ReactRunner) invoke(ctx context.Context, call llm.ToolCall) string {
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
