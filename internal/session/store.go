package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
)

const (
	// DefaultIdle is how long a session may sit without input before eviction.
	DefaultIdle = 15 * time.Minute
	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 5 * time.Minute
)

// Store is a concurrency-safe in-memory session map keyed by chat ID.
// Reads and writes across different chats proceed in parallel; callers that
// process inbound events must additionally serialize per chat via Acquire.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	chatMu    sync.Mutex
	chatLocks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		sessions:  make(map[int64]*Session),
		chatLocks: make(map[int64]*chatLock),
	}
}

// Get returns the session for chatID, or nil when absent.
func (s *Store) Get(chatID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID]
}

// Set stores or replaces the session for its chat ID.
func (s *Store) Set(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ChatID] = sess
	s.mu.Unlock()
}

// Delete removes the session for chatID, if any.
func (s *Store) Delete(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Acquire serializes event handling for one chat. It blocks until the chat's
// lock is free and returns the release function. Two near-simultaneous
// messages from the same chat would otherwise both read the same stage and
// race the transition.
func (s *Store) Acquire(chatID int64) func() {
	s.chatMu.Lock()
	l, ok := s.chatLocks[chatID]
	if !ok {
		l = &chatLock{}
		s.chatLocks[chatID] = l
	}
	l.refs++
	s.chatMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.chatMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.chatLocks, chatID)
		}
		s.chatMu.Unlock()
	}
}

// Sweep evicts every session idle longer than the threshold and returns the
// evicted chat IDs. Evicted users hear nothing; their next message simply
// starts from scratch.
func (s *Store) Sweep(now time.Time, idle time.Duration) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []int64
	for chatID, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > idle {
			delete(s.sessions, chatID)
			evicted = append(evicted, chatID)
		}
	}
	return evicted
}

// RunSweeper drives Sweep on a fixed interval until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idle <= 0 {
		idle = DefaultIdle
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := s.Sweep(now, idle)
			if len(evicted) > 0 {
				logger.Info(ctx, "session", "sweep.evicted",
					slog.Int("evicted", len(evicted)),
					slog.Int("sessions", s.Len()),
				)
			}
		}
	}
}
