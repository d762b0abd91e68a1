package gateway

import (
	"time"

	"mosaic/internal/catalog"
	"mosaic/internal/llm"
)

// Wire types for the OpenAI-compatible surface. Only the fields the
// chat frontends actually read are carried.

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []wireMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	SessionID string        `json:"session_id,omitempty"`
	User      string        `json:"user,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
}

type wireChoice struct {
	Index        int          `json:"index"`
	Message      *wireMessage `json:"message,omitempty"`
	Delta        *wireMessage `json:"delta,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

type modelList struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

type modelObject struct {
	ID       string        `json:"id"`
	Object   string        `json:"object"`
	Name     string        `json:"name,omitempty"`
	Created  int64         `json:"created"`
	OwnedBy  string        `json:"owned_by"`
	Metadata modelMetadata `json:"metadata"`
}

type modelMetadata struct {
	AgentMode    string `json:"agent_mode,omitempty"`
	BackendModel string `json:"backend_model,omitempty"`
	Type         string `json:"type"`
}

func toMessages(wire []wireMessage) []llm.Message {
	out := make([]llm.Message, 0, len(wire))
	for _, m := range wire {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func toModelList(entries []catalog.Entry) modelList {
	now := time.Now().Unix()
	list := modelList{Object: "list", Data: make([]modelObject, 0, len(entries))}
	for _, e := range entries {
		meta := modelMetadata{
			AgentMode:    e.ModeID,
			BackendModel: e.BackendModel,
			Type:         "combination",
		}
		if e.Configurator {
			meta = modelMetadata{Type: "configurator"}
		}
		list.Data = append(list.Data, modelObject{
			ID:       e.VirtualID,
			Object:   "model",
			Name:     e.Label,
			Created:  now,
			OwnedBy:  "mosaic",
			Metadata: meta,
		})
	}
	return list
}

func completionResponse(id, model, content string) chatCompletionResponse {
	stop := "stop"
	return chatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []wireChoice{{
			Message:      &wireMessage{Role: "assistant", Content: content},
			FinishReason: &stop,
		}},
	}
}

func completionChunk(id, model, delta string, finish *string) chatCompletionResponse {
	chunk := chatCompletionResponse{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []wireChoice{{
			Delta:        &wireMessage{Content: delta},
			FinishReason: finish,
		}},
	}
	return chunk
}
