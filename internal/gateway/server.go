// Package gateway exposes the HTTP surface in front of the supervisor:
// chat completion, agent status, and health.
package gateway

import (
	"net/http"

	"sentinel/internal/auth"
	"sentinel/internal/core"
	"sentinel/internal/engine"
)

// Server wires the supervisor to an http.ServeMux and guards the /v1
// routes with the key store; /health is public.
type Server struct {
	supervisor *engine.Supervisor
	keys       *auth.KeyStore
	mux        *http.ServeMux
}

// NewServer constructs a gateway Server over supervisor, authenticating
// requests against keys.
func NewServer(supervisor *engine.Supervisor, keys *auth.KeyStore) *Server {
	s := &Server{supervisor: supervisor, keys: keys, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("POST /v1/chat/completions",
		auth.RequireLevel(s.keys, core.AuthWrite)(http.HandlerFunc(s.handleChatCompletion)))
	s.mux.Handle("GET /v1/agents/status",
		auth.RequireLevel(s.keys, core.AuthRead)(http.HandlerFunc(s.handleAgentStatus)))
}
