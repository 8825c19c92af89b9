package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/domain"
)

// StreamEvent is one message sent to SSE subscribers.
type StreamEvent struct {
	Type    string             `json:"type"`
	Turn    *domain.TurnResult `json:"turn,omitempty"`
	From    domain.Phase       `json:"from,omitempty"`
	To      domain.Phase       `json:"to,omitempty"`
	Outcome domain.Outcome     `json:"outcome,omitempty"`
}

// StreamManager fans session events out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe returns a channel of messages for sessionID and its cancel func.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow subscribers
// miss the message rather than block the game.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Hooks publishes redacted turn results and phase changes.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, e *domain.TurnEndEvent) {
			if e.Result == nil {
				return
			}
			sm.send(e.SessionID, StreamEvent{Type: "turn", Turn: e.Result.ForPlayer()})
		},
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			sm.send(e.SessionID, StreamEvent{Type: "phase", From: e.From, To: e.To, Outcome: e.Outcome})
		},
	}
}

func (sm *StreamManager) send(sessionID string, ev StreamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("sse encode failed", "session_id", sessionID, "err", err)
		return
	}
	sm.Broadcast(sessionID, string(data))
}
