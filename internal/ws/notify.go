package ws

import (
	"context"
	"encoding/json"
	"errors"

	"staff-match/internal/domain/match"
)

var ErrBroadcastDropped = errors.New("ws broadcast dropped")

// Notifier publishes match events to websocket subscribers. Events are
// routed by subject id, falling back to the criteria fingerprint.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func Topic(evt match.Event) string {
	if evt.SubjectID != "" {
		return evt.SubjectID
	}
	return evt.Fingerprint
}

func (n *Notifier) Publish(ctx context.Context, evt match.Event) error {
	if n == nil || n.hub == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if !n.hub.Broadcast(Topic(evt), b) {
		return ErrBroadcastDropped
	}
	return nil
}
