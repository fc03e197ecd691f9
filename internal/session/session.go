// Package session owns the per-user conversation state: the in-memory cache
// mirroring the backing store, the protocol invariant repairer, the token
// budget estimator, and the compactor.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/store"
)

// Session holds the cached conversation history for one user.
//
// A session is owned by the Cache and guarded by a per-user mutex: Acquire
// returns it with the mutex held, and every accessor below assumes the caller
// holds it. Two concurrent turns for the same user must never interleave
// appends, or tool_use/tool_result pairing breaks beyond repair.
type Session struct {
	UserID int64

	mu       sync.Mutex
	messages []provider.Message
	loaded   bool

	// count mirrors len(messages) so Info can read it without contending
	// with an in-flight turn that holds mu for the whole round trip.
	count atomic.Int64
}

// Release unlocks the session. Must be called exactly once per Acquire.
func (s *Session) Release() {
	s.mu.Unlock()
}

// Messages returns the live history slice.
func (s *Session) Messages() []provider.Message {
	return s.messages
}

func (s *Session) Len() int {
	return len(s.messages)
}

// Append adds messages to the history.
func (s *Session) Append(msgs ...provider.Message) {
	s.messages = append(s.messages, msgs...)
	s.count.Store(int64(len(s.messages)))
}

// DropLast removes the most recent message.
func (s *Session) DropLast() {
	if len(s.messages) == 0 {
		return
	}
	s.messages = s.messages[:len(s.messages)-1]
	s.count.Store(int64(len(s.messages)))
}

// Replace swaps the entire history (trim, compaction).
func (s *Session) Replace(msgs []provider.Message) {
	s.messages = msgs
	s.count.Store(int64(len(s.messages)))
}

// Info is the cache-only view of a session's state.
type Info struct {
	UserID       int64 `json:"user_id"`
	MessageCount int   `json:"message_count"`
	Active       bool  `json:"active"`
}

// Cache is the per-user session cache. Sessions are created empty on first
// reference and hydrated from the store at most once per process lifetime.
type Cache struct {
	store store.Store
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewCache(st store.Store, log zerolog.Logger) *Cache {
	return &Cache{
		store:    st,
		log:      log.With().Str("component", "session").Logger(),
		sessions: make(map[int64]*Session),
	}
}

// Acquire returns the user's session with its per-user lock held, hydrating
// it from the store on first access. The caller must call Release when the
// turn is fully finished (after persistence and compaction).
//
// A load failure hydrates an empty session; the store stays the source of
// truth and the flag is still set, so a flaky backend cannot turn every turn
// into a load attempt.
func (c *Cache) Acquire(ctx context.Context, userID int64) *Session {
	s := c.session(userID)
	s.mu.Lock()

	if !s.loaded {
		history, err := c.store.LoadHistory(ctx, userID)
		if err != nil {
			c.log.Warn().Err(err).Int64("user_id", userID).Msg("history load failed, starting empty")
			history = nil
		} else if len(history) > 0 {
			c.log.Info().Int64("user_id", userID).Int("messages", len(history)).Msg("hydrated session")
		}
		s.messages = history
		s.loaded = true
		s.count.Store(int64(len(history)))
	}
	return s
}

// Reset drops the cached history and the hydration flag so the next access
// rehydrates from the store. It does not touch the store itself. Waits for
// any in-flight turn, and calling it twice is the same as calling it once.
func (c *Cache) Reset(userID int64) {
	s := c.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.loaded = false
	s.count.Store(0)
}

// Info reports the cached message count without blocking on an in-flight
// turn and without touching the store.
func (c *Cache) Info(userID int64) Info {
	c.mu.Lock()
	s := c.sessions[userID]
	c.mu.Unlock()

	if s == nil {
		return Info{UserID: userID}
	}
	n := int(s.count.Load())
	return Info{UserID: userID, MessageCount: n, Active: n > 0}
}

func (c *Cache) session(userID int64) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[userID]
	if !ok {
		s = &Session{UserID: userID}
		c.sessions[userID] = s
	}
	return s
}
