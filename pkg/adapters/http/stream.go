package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates a manager with no subscribers. A nil logger is silent.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the session. The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers counts the open subscriptions of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to every subscriber of the session.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// OnChange publishes a state diff. It has the shape of ingest.ChangeListener.
func (sm *StreamManager) OnChange(ctx context.Context, diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		sm.logger.ErrorContext(ctx, "SSE: failed to encode diff", "session_id", diff.SessionID, "err", err)
		return
	}
	sm.Broadcast(diff.SessionID, string(payload))
}

// matchesWatch reports whether a diff touches one of the watched parts:
// step (position or step list), values or status.
func matchesWatch(msg string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "step":
			if diff.CurrentStep != nil || len(diff.Steps) > 0 {
				return true
			}
		case "values":
			if len(diff.Values) > 0 {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		}
	}
	return false
}
