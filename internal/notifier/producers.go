package notifier

import "github.com/BookHive-Network/notifier/internal/events"

// Channel kinds producers and clients agree on.
const (
	ChannelCircle = "circle"
)

// ChannelFor builds the conventional channel name "<kind>_<id>".
func ChannelFor(kind, id string) string {
	return kind + "_" + id
}

// CircleChannel is the channel carrying a study circle's messages.
func CircleChannel(circleID string) string {
	return ChannelFor(ChannelCircle, circleID)
}

// SendNotificationUpdate pushes a new notification to its owner.
func (h *Hub) SendNotificationUpdate(userID string, n events.Notification) int {
	if n.UserID == "" {
		n.UserID = userID
	}
	return h.SendToUser(userID, events.NotificationCreated{Notification: n})
}

// SendCircleMessage pushes a chat message to the circle's subscribers.
func (h *Hub) SendCircleMessage(circleID string, m events.CircleMessage) int {
	if m.CircleID == "" {
		m.CircleID = circleID
	}
	return h.SendToChannel(CircleChannel(circleID), events.CircleMessageSent{Message: m})
}

// SendStoryUpdate announces a story to every connection.
func (h *Hub) SendStoryUpdate(s events.Story) int {
	return h.BroadcastAll(events.StoryCreated{Story: s})
}

// SendResourceUpdate announces a resource change to every connection.
func (h *Hub) SendResourceUpdate(r events.Resource) int {
	return h.BroadcastAll(events.ResourceUpdated{Resource: r})
}

// SendUserActivityUpdate pushes credit and badge changes to one user.
func (h *Hub) SendUserActivityUpdate(userID string, a events.Activity) int {
	if a.UserID == "" {
		a.UserID = userID
	}
	return h.SendToUser(userID, events.UserActivity{Activity: a})
}
