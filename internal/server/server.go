// Package server exposes the gateway's HTTP API: ask, imagine, provider
// and session inspection, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/creative"
	"github.com/quorumhub/quorum-gateway/internal/metrics"
	"github.com/quorumhub/quorum-gateway/internal/orchestrator"
	"github.com/quorumhub/quorum-gateway/internal/provider"
	"github.com/quorumhub/quorum-gateway/internal/store"
)

// Server is the gateway HTTP server
type Server struct {
	cfg        *config.Config
	orch       *orchestrator.Orchestrator
	sampler    *creative.Sampler
	registry   *provider.Registry
	store      *store.Store
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// AskRequest is the body of POST /api/v1/ask
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// AskResponse is the reply to POST /api/v1/ask
type AskResponse struct {
	Answer        string   `json:"answer"`
	Provider      string   `json:"provider"`
	ProvidersUsed []string `json:"providers_used"`
	FromMemory    bool     `json:"from_memory"`
	SessionID     string   `json:"session_id,omitempty"`
}

// ImagineRequest is the body of POST /api/v1/imagine
type ImagineRequest struct {
	Prompt string `json:"prompt"`
	Seeds  int    `json:"seeds,omitempty"`
}

// HealthResponse is the reply to GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is the reply to GET /api/v1/status
type StatusResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Providers []ProviderInfo         `json:"providers"`
	Store     map[string]interface{} `json:"store,omitempty"`
	Memory    int                    `json:"memory_entries"`
	Channels  map[string]bool        `json:"channels"`
	Timestamp string                 `json:"timestamp"`
}

// ProviderInfo describes one configured provider
type ProviderInfo struct {
	Name   string `json:"name"`
	Model  string `json:"model"`
	Active bool   `json:"active"`
}

const version = "1.0.0"

// New creates the HTTP server with all routes registered
func New(cfg *config.Config, orch *orchestrator.Orchestrator, sampler *creative.Sampler, registry *provider.Registry, st *store.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		orch:      orch,
		sampler:   sampler,
		registry:  registry,
		store:     st,
		startTime: time.Now(),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/api/v1/ask", s.askHandler)
	mux.HandleFunc("/api/v1/imagine", s.imagineHandler)
	mux.HandleFunc("/api/v1/providers", s.providersHandler)
	mux.HandleFunc("/api/v1/sessions", s.sessionsHandler)
	mux.HandleFunc("/api/v1/sessions/", s.sessionHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, code int, v interface{}) {
	metrics.RequestCount.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, code int, msg string) {
	s.writeJSON(w, endpoint, code, map[string]string{"error": msg})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "/health", http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, "/health", http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "/api/v1/status", http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := StatusResponse{
		Status:    "healthy",
		Version:   version,
		Uptime:    time.Since(s.startTime).String(),
		Providers: s.providerList(),
		Memory:    s.orch.Memory().Len(),
		Channels: map[string]bool{
			"telegram": s.cfg.Channels.Telegram.Enabled,
			"discord":  s.cfg.Channels.Discord.Enabled,
			"webchat":  s.cfg.Channels.WebChat.Enabled,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.store != nil {
		if sessions, turns, err := s.store.Stats(r.Context()); err == nil {
			resp.Store = map[string]interface{}{"sessions": sessions, "turns": turns}
		}
	}
	s.writeJSON(w, "/api/v1/status", http.StatusOK, resp)
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "/api/v1/ask", http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "/api/v1/ask", http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.orch.Ask(r.Context(), orchestrator.AskRequest{
		Question:  req.Question,
		SessionID: req.SessionID,
		Provider:  req.Provider,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptyQuestion) {
			s.writeError(w, "/api/v1/ask", http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Ask failed", "error", err)
		s.writeError(w, "/api/v1/ask", http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, "/api/v1/ask", http.StatusOK, AskResponse{
		Answer:        res.Answer,
		Provider:      res.Provider,
		ProvidersUsed: res.ProvidersUsed,
		FromMemory:    res.FromMemory,
		SessionID:     res.SessionID,
	})
}

func (s *Server) imagineHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "/api/v1/imagine", http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ImagineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "/api/v1/imagine", http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Seeds == 0 {
		req.Seeds = 5
	}

	res, err := s.sampler.Imagine(r.Context(), req.Prompt, req.Seeds)
	if err != nil {
		if errors.Is(err, creative.ErrEmptyPrompt) {
			s.writeError(w, "/api/v1/imagine", http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Imagine failed", "error", err)
		s.writeError(w, "/api/v1/imagine", http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, "/api/v1/imagine", http.StatusOK, res)
}

func (s *Server) providersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "/api/v1/providers", http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, "/api/v1/providers", http.StatusOK,
		map[string][]ProviderInfo{"providers": s.providerList()})
}

func (s *Server) providerList() []ProviderInfo {
	names := s.registry.Names()
	list := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		client, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		list = append(list, ProviderInfo{Name: name, Model: client.Model(), Active: client.Ready()})
	}
	return list
}

func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "/api/v1/sessions", http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, "/api/v1/sessions", http.StatusServiceUnavailable, "store not configured")
		return
	}

	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.logger.Error("Session list failed", "error", err)
		s.writeError(w, "/api/v1/sessions", http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, "/api/v1/sessions", http.StatusOK,
		map[string]interface{}{"sessions": sessions})
}

// sessionHandler serves /api/v1/sessions/{id}/history and
// DELETE /api/v1/sessions/{id}
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/v1/sessions/"
	if s.store == nil {
		s.writeError(w, endpoint, http.StatusServiceUnavailable, "store not configured")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, endpoint)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		s.writeError(w, endpoint, http.StatusNotFound, "session id required")
		return
	}
	sessionID := parts[0]

	switch {
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "history":
		turns, err := s.store.History(r.Context(), sessionID)
		if err != nil {
			s.logger.Error("History fetch failed", "session", sessionID, "error", err)
			s.writeError(w, endpoint, http.StatusInternalServerError, "internal error")
			return
		}
		if turns == nil {
			turns = []store.Turn{}
		}
		resp := map[string]interface{}{"session_id": sessionID, "turns": turns}
		if summary, err := s.store.GetSummary(r.Context(), sessionID); err == nil && summary.RollingSummary != "" {
			resp["summary"] = summary.RollingSummary
		}
		s.writeJSON(w, endpoint, http.StatusOK, resp)

	case r.Method == http.MethodDelete && len(parts) == 1:
		if err := s.store.WipeSession(r.Context(), sessionID); err != nil {
			s.logger.Error("Session wipe failed", "session", sessionID, "error", err)
			s.writeError(w, endpoint, http.StatusInternalServerError, "internal error")
			return
		}
		s.writeJSON(w, endpoint, http.StatusOK, map[string]string{"status": "wiped"})

	default:
		s.writeError(w, endpoint, http.StatusNotFound, "not found")
	}
}
