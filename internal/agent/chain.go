package agent

import (
	"context"
	"log/slog"

	"mosaic/internal/history"
	"mosaic/internal/llm"
)

// ChainRunner is the simplest mode: one streamed LLM call, no tools.
type ChainRunner struct {
	provider llm.Provider
	store    *history.Store
}

func NewChainRunner(provider llm.Provider, store *history.Store) *ChainRunner {
	return &ChainRunner{provider: provider, store: store}
}

func (r *ChainRunner) Generate(ctx context.Context, model, sessionID string, messages []llm.Message, emit func(Event)) (*llm.Completion, error) {
	input := withHistory(recallTurns(ctx, r.store, sessionID), messages)

	resp, err := r.provider.ChatStream(ctx, model, input, nil, func(token string) {
		emit(Event{Type: EventToken, Data: token})
	})
	if err != nil {
		emit(Event{Type: EventError, Data: err.Error()})
		return nil, err
	}

	persistTurn(ctx, r.store, "chain", model, sessionID, messages, resp.Content)
	emit(Event{Type: EventDone})
	return resp, nil
}

// persistTurn records the completed exchange. Persistence failures are
// logged, never surfaced: history is auxiliary to the reply.
func persistTurn(ctx context.Context, store *history.Store, modeID, model, sessionID string, messages []llm.Message, reply string) {
	if store == nil || sessionID == "" {
		return
	}
	if err := store.EnsureSession(ctx, sessionID); err != nil {
		slog.Warn("failed to ensure session", "session_id", sessionID, "error", err)
		return
	}
	err := store.SaveTurn(ctx, history.Turn{
		SessionID:   sessionID,
		ModeID:      modeID,
		Model:       model,
		UserMessage: lastUserMessage(messages),
		Reply:       reply,
	})
	if err != nil {
		slog.Warn("failed to save turn", "session_id", sessionID, "error", err)
	}
}

func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// historyWindow bounds how many prior turns are replayed into context.
const historyWindow = 20

// recallTurns loads a session's recent history as chat messages,
// oldest first. Failures degrade to an empty history.
func recallTurns(ctx context.Context, store *history.Store, sessionID string) []llm.Message {
	if store == nil || sessionID == "" {
		return nil
	}
	turns, err := store.RecentTurns(ctx, sessionID, historyWindow)
	if err != nil {
		slog.Warn("failed to load session history", "session_id", sessionID, "error", err)
		return nil
	}

	out := make([]llm.Message, 0, 2*len(turns))
	for _, t := range turns {
		out = append(out,
			llm.Message{Role: "user", Content: t.UserMessage},
			llm.Message{Role: "assistant", Content: t.Reply},
		)
	}
	return out
}

// withHistory splices recalled turns in after any leading system
// messages. The result is always a fresh slice.
func withHistory(recalled, messages []llm.Message) []llm.Message {
	split := 0
	for split < len(messages) && messages[split].Role == "system" {
		split++
	}

	out := make([]llm.Message, 0, len(recalled)+len(messages))
	out = append(out, messages[:split]...)
	out = append(out, recalled...)
	out = append(out, messages[split:]...)
	return out
}
