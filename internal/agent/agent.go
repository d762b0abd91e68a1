package agent

import (
	"context"

	"mosaic/internal/llm"
)

type EventType string

const (
	EventToken      EventType = "token"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Runner is one agent mode's generation logic. The backend model is
// passed per call; the instance that owns the runner decides which.
type Runner interface {
	Generate(ctx context.Context, model, sessionID string, messages []llm.Message, emit func(Event)) (*llm.Completion, error)
}
