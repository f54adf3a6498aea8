// Package server provides the HTTP surface: health, pipeline state, the
// camera preview, the overlay event socket, and the model API.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline is the part of the running recognizer the server reports on.
type Pipeline interface {
	Snapshot() app.Snapshot
	Stats() app.Stats
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
	Preview   *capture.Preview
	Hub       *Hub
}

// Server is the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
	}

	if s.config.Store != nil {
		model := api.NewModelHandler(s.config.Store)
		s.mux.Handle("/api/model", model)
		s.mux.Handle("/api/model/", model)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/overlay", s.config.Hub)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type stateResponse struct {
	Enabled  bool         `json:"enabled"`
	State    string       `json:"state"`
	Snapshot app.Snapshot `json:"overlay"`
	Stats    app.Stats    `json:"pipeline"`
}

type setStateRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleState reports the gate state and pipeline counters on GET and
// toggles recognition on PUT.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	p := s.config.Pipeline

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req setStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			http.Error(w, "Expected {\"enabled\": bool}", http.StatusBadRequest)
			return
		}
		p.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := p.Snapshot()
	writeJSON(w, stateResponse{
		Enabled:  p.IsEnabled(),
		State:    snap.State.String(),
		Snapshot: snap,
		Stats:    p.Stats(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
