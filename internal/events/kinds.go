package events

// Welcome greets a freshly admitted connection.
type Welcome struct {
	Message string `json:"message"`
}

// Authenticated acknowledges a bound userId.
type Authenticated struct {
	UserID string `json:"userId"`
}

// AuthError reports a rejected authenticate message.
type AuthError struct {
	Message string `json:"message"`
}

// Subscribed acknowledges a subscribe message.
type Subscribed struct {
	Channel string `json:"channel"`
}

// Unsubscribed acknowledges an unsubscribe message.
type Unsubscribed struct {
	Channel string `json:"channel"`
}

// Pong answers a ping.
type Pong struct{}

// Error reports a rejected inbound message.
type Error struct {
	Message string `json:"message"`
}

// NotificationCreated carries a notification for one user.
type NotificationCreated struct {
	Notification Notification
}

// CircleMessageSent carries a study circle chat message.
type CircleMessageSent struct {
	Message CircleMessage
}

// StoryCreated announces a new story to everyone.
type StoryCreated struct {
	Story Story
}

// ResourceUpdated announces a changed study resource to everyone.
type ResourceUpdated struct {
	Resource Resource
}

// UserActivity carries credit and gamification changes for one user.
type UserActivity struct {
	Activity Activity
}

func (Welcome) Type() Type             { return TypeWelcome }
func (Authenticated) Type() Type       { return TypeAuthenticated }
func (AuthError) Type() Type           { return TypeAuthError }
func (Subscribed) Type() Type          { return TypeSubscribed }
func (Unsubscribed) Type() Type        { return TypeUnsubscribed }
func (Pong) Type() Type                { return TypePong }
func (Error) Type() Type               { return TypeError }
func (NotificationCreated) Type() Type { return TypeNotificationCreated }
func (CircleMessageSent) Type() Type   { return TypeCircleMessage }
func (StoryCreated) Type() Type        { return TypeStoryCreated }
func (ResourceUpdated) Type() Type     { return TypeResourceUpdated }
func (UserActivity) Type() Type        { return TypeUserActivity }

func (e Welcome) payload() any             { return e }
func (e Authenticated) payload() any       { return e }
func (e AuthError) payload() any           { return e }
func (e Subscribed) payload() any          { return e }
func (e Unsubscribed) payload() any        { return e }
func (e Pong) payload() any                { return e }
func (e Error) payload() any               { return e }
func (e NotificationCreated) payload() any { return e.Notification }
func (e CircleMessageSent) payload() any   { return e.Message }
func (e StoryCreated) payload() any        { return e.Story }
func (e ResourceUpdated) payload() any     { return e.Resource }
func (e UserActivity) payload() any        { return e.Activity }
