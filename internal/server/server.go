// Package server exposes the HTTP front door of the agent service: the chat
// endpoint, session management, and health checks.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taeskim-42/repstack-backend/internal/agent"
	"github.com/taeskim-42/repstack-backend/internal/session"
	"github.com/taeskim-42/repstack-backend/internal/store"
)

// Trainer is the agent surface the server fronts.
type Trainer interface {
	Chat(ctx context.Context, userID int64, message string, userContext agent.UserContext) *agent.Result
	ResetSession(userID int64)
	SessionInfo(userID int64) session.Info
}

// Server handles HTTP requests for the agent service.
type Server struct {
	trainer Trainer
	client  *store.Client
	token   string
	log     zerolog.Logger
}

func New(trainer Trainer, client *store.Client, token string, log zerolog.Logger) *Server {
	return &Server{
		trainer: trainer,
		client:  client,
		token:   token,
		log:     log.With().Str("component", "server").Logger(),
	}
}

// Handler builds the routed handler. Every endpoint except /health requires
// the service bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /chat", s.auth(http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /sessions/{user_id}/reset", s.auth(http.HandlerFunc(s.handleReset)))
	mux.Handle("GET /sessions/{user_id}/status", s.auth(http.HandlerFunc(s.handleStatus)))
	return s.requestLog(mux)
}

// ChatRequest is the front-door chat payload.
type ChatRequest struct {
	UserID    int64  `json:"user_id"`
	Message   string `json:"message"`
	RoutineID *int64 `json:"routine_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "user_id and message are required"})
		return
	}

	userContext := s.fetchUserContext(r.Context(), req.UserID)
	result := s.trainer.Chat(r.Context(), req.UserID, req.Message, userContext)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid user_id"})
		return
	}
	s.trainer.ResetSession(userID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session reset"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid user_id"})
		return
	}
	writeJSON(w, http.StatusOK, s.trainer.SessionInfo(userID))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "repstack-agent"})
}

// fetchUserContext pulls profile and memory for the turn. Either lookup may
// fail; the prompt builder falls back to defaults for what is missing.
func (s *Server) fetchUserContext(ctx context.Context, userID int64) agent.UserContext {
	uc := agent.UserContext{}

	if resp, err := s.client.Get(ctx, fmt.Sprintf("/users/%d/profile", userID), userID, nil); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("profile fetch failed")
	} else if data, ok := resp["data"].(map[string]any); ok {
		uc.Profile = data
	}

	if resp, err := s.client.Get(ctx, fmt.Sprintf("/users/%d/memory", userID), userID, nil); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("memory fetch failed")
	} else if data, ok := resp["data"].(map[string]any); ok {
		uc.Memory = data
	}

	return uc
}

// auth enforces the service bearer token.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLog tags each request with an id and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func pathUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("user_id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
