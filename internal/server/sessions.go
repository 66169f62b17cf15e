package server

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultSessionTimeout is how long an idle MCP session is tracked.
const DefaultSessionTimeout = 24 * time.Hour

const sessionCleanupInterval = 10 * time.Minute

type sessionInfo struct {
	started    time.Time
	lastAccess time.Time
}

// SessionTracker keeps the set of live MCP client sessions so the
// active session gauge stays accurate even when clients vanish without
// closing their session.
type SessionTracker struct {
	sessions map[string]*sessionInfo
	mu       sync.Mutex
	now      func() time.Time
}

// NewSessionTracker creates an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]*sessionInfo),
		now:      time.Now,
	}
}

// Register records a session. It returns false if the id was already known.
func (t *SessionTracker) Register(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[id]; ok {
		return false
	}
	now := t.now()
	t.sessions[id] = &sessionInfo{started: now, lastAccess: now}
	return true
}

// Touch marks a session as active.
func (t *SessionTracker) Touch(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.sessions[id]; ok {
		info.lastAccess = t.now()
	}
}

// Unregister removes a session. It returns false if the id was unknown.
func (t *SessionTracker) Unregister(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[id]; !ok {
		return false
	}
	delete(t.sessions, id)
	return true
}

// Count returns the number of tracked sessions.
func (t *SessionTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// ListSessions returns the tracked session ids in sorted order.
func (t *SessionTracker) ListSessions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Expire removes sessions idle for longer than timeout and returns their ids.
func (t *SessionTracker) Expire(timeout time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var expired []string
	for id, info := range t.sessions {
		if now.Sub(info.lastAccess) > timeout {
			delete(t.sessions, id)
			expired = append(expired, id)
		}
	}
	slices.Sort(expired)
	return expired
}

// Run expires idle sessions every interval until ctx is done. onExpire is
// called once per removed session.
func (t *SessionTracker) Run(ctx context.Context, interval, timeout time.Duration, onExpire func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := t.Expire(timeout)
			for _, id := range expired {
				if onExpire != nil {
					onExpire(id)
				}
			}
			if len(expired) > 0 {
				slog.Info("Cleaned up expired sessions", "count", len(expired))
			}
		}
	}
}
