package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"sentinel/internal/core"
	"sentinel/internal/engine"
	"sentinel/internal/observability"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, core.HealthStatus{
		Status:    core.HealthHealthy,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observability.LoggerWithTrace(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondValidationError(w, "request body could not be read", "body")
		return
	}
	log.Debug().RawJSON("body", observability.RedactJSON(body)).Msg("chat completion request")

	var req core.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondValidationError(w, "request body is not valid JSON", "body")
		return
	}

	if len(req.Messages) == 0 {
		respondValidationError(w, "messages must be non-empty", "messages")
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		respondValidationError(w, "message content must contain at least one non-whitespace character", "messages")
		return
	}

	id := req.AgentID
	if id == nil {
		newID := core.NewAgentId()
		id = &newID
	}

	actor, err := s.resolveActor(ctx, *id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal_error", err.Error())
		return
	}

	reply := make(chan core.CanonicalMessage, 1)
	msg := engine.NewActorMessageWithReply(last, reply)

	select {
	case actor.Inbound() <- msg:
	case <-ctx.Done():
		respondError(w, http.StatusInternalServerError, "internal_error", "internal_error", "request canceled")
		return
	}

	select {
	case response := <-reply:
		log.Info().Str("agent_id", id.String()).Msg("chat completion served")
		respondJSON(w, http.StatusOK, core.ChatCompletionResponse{
			Message: response,
			Model:   modelOrDefault(req.Model),
		})
	case <-ctx.Done():
		respondError(w, http.StatusInternalServerError, "internal_error", "internal_error", "request canceled")
	}
}

// resolveActor returns the actor registered under id, spawning one on
// first use. The LLM port the gateway does not impose a deadline on
// completion (per the concurrency model); resolution itself is cheap and
// bounded by ctx.
func (s *Server) resolveActor(ctx context.Context, id core.AgentId) (*engine.Actor, error) {
	if handle, ok := s.supervisor.Get(id); ok {
		return handle.Actor, nil
	}
	return s.supervisor.Spawn(ctx, id)
}

func modelOrDefault(model string) string {
	if model == "" {
		return "sentinel-default"
	}
	return model
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.supervisor.Statuses())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, errType, message string) {
	respondJSON(w, status, core.ErrorResponse{
		Error: core.ErrorBody{Code: code, Message: message, Type: errType},
	})
}

func respondValidationError(w http.ResponseWriter, message, field string) {
	respondJSON(w, http.StatusBadRequest, core.ErrorResponse{
		Error: core.ErrorBody{
			Code:    "invalid_request",
			Message: message,
			Type:    "validation_error",
			Details: map[string]string{"field": field},
		},
	})
}
