package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mosaic/internal/discovery"
)

// OllamaProvider talks the native ollama API. It is both a generation
// Provider and the primary model discovery client, since the tags
// endpoint is the only one that reports model sizes.
type OllamaProvider struct {
	client *ollama.Client
}

func NewOllama(baseURL string, timeout time.Duration) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &OllamaProvider{client: ollama.NewClient(u, httpClient)}, nil
}

// ListModels queries the tags endpoint for the currently pulled models.
func (o *OllamaProvider) ListModels(ctx context.Context) ([]discovery.Model, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		if isDecodeError(err) {
			return nil, fmt.Errorf("%w: %v", discovery.ErrMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", discovery.ErrUnreachable, err)
	}

	models := make([]discovery.Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, discovery.Model{
			Name:     m.Name,
			Size:     m.Size,
			Provider: "ollama",
		})
	}
	return models, nil
}

func (o *OllamaProvider) ChatStream(ctx context.Context, model string, messages []Message, tools []ToolSpec, onToken func(string)) (*Completion, error) {
	req := &ollama.ChatRequest{
		Model:    model,
		Messages: toOllamaMessages(messages),
		Tools:    toOllamaTools(tools),
	}

	var (
		text      strings.Builder
		toolCalls []ToolCall
		last      ollama.ChatResponse
	)

	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		if resp.Message.Content != "" {
			text.WriteString(resp.Message.Content)
			onToken(resp.Message.Content)
		}
		for _, tc := range resp.Message.ToolCalls {
			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			toolCalls = append(toolCalls, ToolCall{
				ID:        fmt.Sprintf("call_%d", len(toolCalls)),
				Name:      tc.Function.Name,
				Arguments: string(args),
			})
		}
		last = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	return &Completion{
		Content:   text.String(),
		ToolCalls: toolCalls,
		Model:     last.Model,
	}, nil
}

func toOllamaMessages(messages []Message) []ollama.Message {
	out := make([]ollama.Message, 0, len(messages))
	for _, m := range messages {
		om := ollama.Message{
			Role:    m.Role,
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			var args ollama.ToolCallFunctionArguments
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				args = ollama.ToolCallFunctionArguments{}
			}
			call := ollama.ToolCall{}
			call.Function.Name = tc.Name
			call.Function.Arguments = args
			om.ToolCalls = append(om.ToolCalls, call)
		}
		out = append(out, om)
	}
	return out
}

func toOllamaTools(tools []ToolSpec) ollama.Tools {
	var out ollama.Tools
	for _, t := range tools {
		props := make(map[string]ollama.ToolProperty, len(t.Parameters.Properties))
		for name, p := range t.Parameters.Properties {
			prop := ollama.ToolProperty{
				Type:        ollama.PropertyType{p.Type},
				Description: p.Description,
			}
			for _, e := range p.Enum {
				prop.Enum = append(prop.Enum, e)
			}
			props[name] = prop
		}

		tool := ollama.Tool{Type: "function"}
		tool.Function.Name = t.Name
		tool.Function.Description = t.Description
		tool.Function.Parameters.Type = "object"
		tool.Function.Parameters.Required = t.Parameters.Required
		tool.Function.Parameters.Properties = props
		out = append(out, tool)
	}
	return out
}

func isDecodeError(err error) bool {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syntax) || errors.As(err, &typ)
}
