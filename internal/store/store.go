// Package store persists per-user conversation history through the RepStack
// backend internal API and provides the shared authenticated HTTP client that
// the tool handlers reuse for their own backend calls.
package store

import (
	"context"

	"github.com/taeskim-42/repstack-backend/internal/provider"
)

// Store is the durable backing for per-user conversation history.
// The cache treats the store as eventually consistent: load failures hydrate
// an empty session and save failures are logged, never retried inline.
type Store interface {
	// LoadHistory returns the user's persisted messages, oldest first.
	LoadHistory(ctx context.Context, userID int64) ([]provider.Message, error)

	// SaveMessages appends newly produced messages to the user's history.
	SaveMessages(ctx context.Context, userID int64, msgs []provider.Message) error

	// ReplaceHistory overwrites the user's entire history. Only the compactor
	// uses this, after splicing in a summary.
	ReplaceHistory(ctx context.Context, userID int64, msgs []provider.Message) error
}
