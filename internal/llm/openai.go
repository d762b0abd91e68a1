package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mosaic/internal/discovery"
)

// OpenAIProvider talks any OpenAI-compatible serving endpoint. Model
// discovery through this provider carries no size information.
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAI(baseURL, apiKey string) *OpenAIProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithHTTPClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}))
	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client}
}

func (o *OpenAIProvider) ListModels(ctx context.Context) ([]discovery.Model, error) {
	page, err := o.client.Models.List(ctx)
	if err != nil {
		if isDecodeError(err) {
			return nil, fmt.Errorf("%w: %v", discovery.ErrMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", discovery.ErrUnreachable, err)
	}

	models := make([]discovery.Model, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, discovery.Model{
			Name:     m.ID,
			Provider: "openai",
		})
	}
	return models, nil
}

func (o *OpenAIProvider) ChatStream(ctx context.Context, model string, messages []Message, tools []ToolSpec, onToken func(string)) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(tools),
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			onToken(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(acc.Choices) == 0 {
		return &Completion{Model: acc.Model}, nil
	}

	msg := acc.Choices[0].Message
	completion := &Completion{
		Content: msg.Content,
		Model:   acc.Model,
	}
	for _, tc := range msg.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return completion, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system", "developer":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			am := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: m.Content,
			}
			for _, tc := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallUnion{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageFunctionToolCallFunction{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, am.ToParam())
		case "tool":
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toOpenAITools(tools []ToolSpec) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		properties := make(map[string]any, len(t.Parameters.Properties))
		for name, p := range t.Parameters.Properties {
			prop := map[string]any{"type": p.Type}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			properties[name] = prop
		}

		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   t.Parameters.Required,
			},
		}))
	}
	return out
}
