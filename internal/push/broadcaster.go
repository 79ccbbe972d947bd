package push

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/microparty/microparty/internal/model"
)

// Envelope is the framing every event goes out in
type Envelope struct {
	Event     model.EventType `json:"event"`
	Data      any             `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Broadcaster frames named events and hands them to the session's hub. It
// satisfies the phase loop's broadcast dependency.
type Broadcaster struct {
	manager *Manager
	logger  *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(manager *Manager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		manager: manager,
		logger:  logger.With(slog.String("component", "broadcaster")),
	}
}

// Broadcast delivers a named event to every member of a session. Sessions
// without a hub (no connected subscribers yet) are skipped.
func (b *Broadcaster) Broadcast(id model.SessionID, event model.EventType, payload any) {
	hub := b.manager.GetHub(id)
	if hub == nil {
		return
	}

	data, err := b.frame(event, payload)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("session", string(id)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	hub.Broadcast(data)
}

// SendToPlayer delivers a named event to one player in a session
func (b *Broadcaster) SendToPlayer(id model.SessionID, playerID model.PlayerID, event model.EventType, payload any) {
	hub := b.manager.GetHub(id)
	if hub == nil {
		return
	}

	data, err := b.frame(event, payload)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("session", string(id)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	hub.SendToPlayer(playerID, data)
}

func (b *Broadcaster) frame(event model.EventType, payload any) ([]byte, error) {
	return json.Marshal(Envelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
