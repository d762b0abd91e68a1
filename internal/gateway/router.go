package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"mosaic/internal/agent"
	"mosaic/internal/catalog"
	"mosaic/internal/llm"
	"mosaic/internal/trace"
)

// requestState tracks a request through the routing pipeline.
type requestState string

const (
	stateReceived   requestState = "RECEIVED"
	stateResolved   requestState = "RESOLVED"
	stateConfigured requestState = "CONFIGURED"
	stateDispatched requestState = "DISPATCHED"
	stateCompleted  requestState = "COMPLETED"
	stateFailed     requestState = "FAILED"
)

// Router resolves a virtual model id to a mode/model pair and drives
// the request through the pool. The configurator entry never reaches
// an agent: its messages are interpreted as commands and answered
// directly.
type Router struct {
	catalog    *catalog.Catalog
	pool       *agent.Pool
	controller *agent.Controller
}

func NewRouter(cat *catalog.Catalog, pool *agent.Pool, controller *agent.Controller) *Router {
	return &Router{catalog: cat, pool: pool, controller: controller}
}

func (rt *Router) Route(ctx context.Context, virtualID, sessionID string, messages []llm.Message, emit func(agent.Event)) (*llm.Completion, error) {
	ctx, span := trace.Tracer().Start(ctx, "gateway.route",
		oteltrace.WithAttributes(
			attribute.String("model.virtual_id", virtualID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	state := stateReceived
	transition := func(next requestState) {
		slog.Debug("request transition", "from", state, "to", next, "virtual_id", virtualID)
		state = next
		span.SetAttributes(attribute.String("request.state", string(next)))
	}

	fail := func(err error) (*llm.Completion, error) {
		transition(stateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entry, err := rt.catalog.Resolve(virtualID)
	if err != nil {
		return fail(fmt.Errorf("resolve %q: %w", virtualID, err))
	}
	transition(stateResolved)

	if entry.Configurator {
		reply := rt.controller.HandleCommand(ctx, lastUserContent(messages))
		emit(agent.Event{Type: agent.EventToken, Data: reply})
		emit(agent.Event{Type: agent.EventDone})
		transition(stateCompleted)
		return &llm.Completion{Content: reply, Model: virtualID}, nil
	}

	// Dispatch takes the instance lock, rebinds the model if needed and
	// runs generation under it. Configuration and dispatch are one
	// critical section from the router's point of view.
	transition(stateConfigured)
	transition(stateDispatched)
	resp, err := rt.pool.Dispatch(ctx, entry.ModeID, entry.BackendModel, sessionID, messages, emit)
	if err != nil {
		return fail(fmt.Errorf("dispatch %s/%s: %w", entry.ModeID, entry.BackendModel, err))
	}

	transition(stateCompleted)
	return resp, nil
}

func lastUserContent(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
