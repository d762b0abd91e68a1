package llm

import (
	"context"

	"mosaic/internal/discovery"
)

// Message is a provider-neutral chat message. ToolCalls is set on
// assistant messages that requested tools; ToolCallID ties a "tool"
// role message back to the call it answers.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ToolSpec is the agent-runtime binding for one registered tool.
// Providers translate it to their native function-calling format.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  ParameterSchema
}

type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Completion is the final result of one generation call.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Model     string
}

// Provider generates completions against a named backend model,
// streaming text deltas through onToken.
type Provider interface {
	ChatStream(ctx context.Context, model string, messages []Message, tools []ToolSpec, onToken func(string)) (*Completion, error)
}

// ModelLister is implemented by providers that can enumerate the
// models their serving backend currently holds.
type ModelLister interface {
	ListModels(ctx context.Context) ([]discovery.Model, error)
}
