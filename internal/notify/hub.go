package notify

import (
	"context"
	"errors"

	"qrdine-backend/internal/models"
)

// RoleWaiter is the websocket role notifications are addressed to.
const RoleWaiter = "waiter"

// ErrNoListeners is returned by the audio cue when no waiter screen is
// connected to play it.
var ErrNoListeners = errors.New("no connected waiter screens")

// Broadcaster is the part of the websocket hub the sinks use.
type Broadcaster interface {
	BroadcastToRole(role string, data interface{}) int
	BroadcastToWaiter(waiterID string, data interface{})
}

// HubSink pushes notifications to connected waiter screens. Notifications
// with a WaiterID only reach that waiter's connections.
type HubSink struct {
	hub  Broadcaster
	role string
}

func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub, role: RoleWaiter}
}

func (s *HubSink) Notify(_ context.Context, n models.Notification) {
	msg := map[string]interface{}{
		"type": "notification",
		"data": n,
	}
	if n.WaiterID != "" {
		s.hub.BroadcastToWaiter(n.WaiterID, msg)
		return
	}
	s.hub.BroadcastToRole(s.role, msg)
}

// DefaultChimeURL is the sound the dashboard plays for new orders.
const DefaultChimeURL = "/notification.mp3"

// HubAudioCue asks connected waiter screens to play the new-order chime.
type HubAudioCue struct {
	hub  Broadcaster
	role string
	src  string
}

func NewHubAudioCue(hub Broadcaster, src string) *HubAudioCue {
	if src == "" {
		src = DefaultChimeURL
	}
	return &HubAudioCue{hub: hub, role: RoleWaiter, src: src}
}

func (a *HubAudioCue) Play(context.Context) error {
	sent := a.hub.BroadcastToRole(a.role, map[string]interface{}{
		"type": "play_sound",
		"src":  a.src,
	})
	if sent == 0 {
		return ErrNoListeners
	}
	return nil
}
