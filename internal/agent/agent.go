// Package agent runs the multi-turn trainer loop: model calls, tool dispatch,
// history maintenance, and persistence for one user turn at a time.
package agent

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/session"
	"github.com/taeskim-42/repstack-backend/internal/store"
	"github.com/taeskim-42/repstack-backend/internal/tools"
)

// Agent is the front door for conversation turns. It owns no state of its
// own; per-user state lives in the session cache and the store.
type Agent struct {
	provider  provider.Provider
	cache     *session.Cache
	store     store.Store
	tools     *tools.Registry
	compactor *session.Compactor
	model     string
	log       zerolog.Logger
}

func New(p provider.Provider, cache *session.Cache, st store.Store, reg *tools.Registry, comp *session.Compactor, model string, log zerolog.Logger) *Agent {
	if model == "" {
		model = p.DefaultModel()
	}
	return &Agent{
		provider:  p,
		cache:     cache,
		store:     st,
		tools:     reg,
		compactor: comp,
		model:     model,
		log:       log.With().Str("component", "agent").Logger(),
	}
}

// UserContext is the profile and long-term memory fetched for a turn. Either
// map may be nil when the backend lookup failed; the prompt degrades to its
// defaults.
type UserContext struct {
	Profile map[string]any
	Memory  map[string]any
}

// ToolCallReport is the front-door view of one tool invocation during a turn.
type ToolCallReport struct {
	Name   string          `json:"name"`
	Input  json.RawMessage `json:"input"`
	Result any             `json:"result"`
}

// Usage aggregates token usage across every model call of a turn.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is the outcome of one conversation turn.
type Result struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
	ToolCalls []ToolCallReport `json:"tool_calls,omitempty"`
	Usage     *Usage           `json:"usage,omitempty"`
}

// ResetSession drops the user's cached history so the next turn rehydrates
// from the store.
func (a *Agent) ResetSession(userID int64) {
	a.cache.Reset(userID)
	a.log.Info().Int64("user_id", userID).Msg("session reset")
}

// SessionInfo reports the cached session state without touching the store or
// blocking on an in-flight turn.
func (a *Agent) SessionInfo(userID int64) session.Info {
	return a.cache.Info(userID)
}
