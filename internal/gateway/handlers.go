package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"mosaic/internal/agent"
	"mosaic/internal/catalog"
	"mosaic/internal/discovery"
	"mosaic/internal/llm"
	"mosaic/internal/tools"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"message": msg}})
}

// statusFor maps routing errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, agent.ErrUnknownMode):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, discovery.ErrUnreachable),
		errors.Is(err, discovery.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func completionID() string {
	b := make([]byte, 12)
	rand.Read(b)
	return "chatcmpl-" + hex.EncodeToString(b)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toModelList(s.catalog.Entries()))
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "model and messages are required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.User
	}
	messages := toMessages(req.Messages)

	if req.Stream {
		// Check the id before the SSE headers commit the response to
		// 200; resolution failures still get a proper status.
		if _, err := s.catalog.Resolve(req.Model); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		s.streamCompletion(w, r, req.Model, sessionID, messages)
		return
	}

	resp, err := s.router.Route(r.Context(), req.Model, sessionID, messages, func(agent.Event) {})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, completionResponse(completionID(), req.Model, resp.Content))
}

func (s *Server) streamCompletion(w http.ResponseWriter, r *http.Request, model, sessionID string, messages []llm.Message) {
	sse := NewSSEWriter(w)
	id := completionID()
	var sentError bool

	_, err := s.router.Route(r.Context(), model, sessionID, messages, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToken:
			if token, ok := ev.Data.(string); ok {
				sse.SendData(completionChunk(id, model, token, nil))
			}
		case agent.EventError:
			sentError = true
			sse.SendData(map[string]any{"error": ev.Data})
		case agent.EventDone:
			stop := "stop"
			sse.SendData(completionChunk(id, model, "", &stop))
		}
	})
	if err != nil && !sentError {
		sse.SendData(map[string]any{"error": map[string]string{"message": err.Error()}})
	}
	sse.SendDone()
}

func (s *Server) handleRefreshModels(w http.ResponseWriter, r *http.Request) {
	s.cache.Invalidate()
	if err := s.catalog.Refresh(r.Context()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "refreshed",
		"models": len(s.catalog.Entries()),
	})
}

func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"modes": s.catalog.Modes()})
}

func (s *Server) handleBackendModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.cache.ListModels(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleCurrentConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"configuration": s.controller.CurrentConfig()})
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode  string `json:"mode"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Mode == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "mode and model are required")
		return
	}
	if err := s.controller.Configure(r.Context(), req.Mode, req.Model); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%s now uses %s", req.Mode, req.Model),
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": agent.Recommendations()})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": tools.FrontendExport(s.registry),
		"count": s.registry.Len(),
	})
}

func (s *Server) handleReloadTools(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"tools":  s.registry.Len(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	turns, err := s.store.Turns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
