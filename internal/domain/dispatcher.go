package domain

import "github.com/BookHive-Network/notifier/internal/events"

// Dispatcher delivers an event to an audience and reports how many
// connections accepted it. Delivery is best-effort and at-most-once.
type Dispatcher interface {
	BroadcastAll(e events.Event) int
	SendToUser(userID string, e events.Event) int
	SendToChannel(channel string, e events.Event) int
}

// Registry exposes the observability side of the connection registry.
type Registry interface {
	Count() int
	AuthenticatedCount() int
}
