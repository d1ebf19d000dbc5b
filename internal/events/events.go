package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the wire name of an outbound event.
type Type string

// Control events answer a single connection.
const (
	TypeWelcome       Type = "welcome"
	TypeAuthenticated Type = "authenticated"
	TypeAuthError     Type = "auth_error"
	TypeSubscribed    Type = "subscribed"
	TypeUnsubscribed  Type = "unsubscribed"
	TypePong          Type = "pong"
	TypeError         Type = "error"
)

// Domain events are produced by the rest of BookHive.
const (
	TypeNotificationCreated Type = "notification_created"
	TypeCircleMessage       Type = "circle_message"
	TypeStoryCreated        Type = "story_created"
	TypeResourceUpdated     Type = "resource_updated"
	TypeUserActivity        Type = "user_activity"
)

var controlTypes = []Type{
	TypeWelcome, TypeAuthenticated, TypeAuthError,
	TypeSubscribed, TypeUnsubscribed, TypePong, TypeError,
}

var domainTypes = []Type{
	TypeNotificationCreated, TypeCircleMessage, TypeStoryCreated,
	TypeResourceUpdated, TypeUserActivity,
}

// Event is a closed set: only the kinds in this package implement it.
type Event interface {
	Type() Type
	payload() any
}

// Frame is the JSON object written to clients.
type Frame struct {
	Type      Type            `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type wireFrame struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Encode serializes e with the given timestamp.
func Encode(e Event, now time.Time) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("encode event: nil event")
	}
	b, err := json.Marshal(wireFrame{Type: e.Type(), Data: e.payload(), Timestamp: now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	return b, nil
}

// ParseFrame reads a frame produced by Encode.
func ParseFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("parse frame: %w", err)
	}
	if f.Type == "" {
		return Frame{}, fmt.Errorf("parse frame: missing type")
	}
	return f, nil
}

// Decode builds a domain event of type t from its JSON data. Control
// events are never accepted from outside the process.
func Decode(t Type, data json.RawMessage) (Event, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("decode %s: missing data", t)
	}
	var (
		e   Event
		err error
	)
	switch t {
	case TypeNotificationCreated:
		var v NotificationCreated
		err = json.Unmarshal(data, &v.Notification)
		e = v
	case TypeCircleMessage:
		var v CircleMessageSent
		err = json.Unmarshal(data, &v.Message)
		e = v
	case TypeStoryCreated:
		var v StoryCreated
		err = json.Unmarshal(data, &v.Story)
		e = v
	case TypeResourceUpdated:
		var v ResourceUpdated
		err = json.Unmarshal(data, &v.Resource)
		e = v
	case TypeUserActivity:
		var v UserActivity
		err = json.Unmarshal(data, &v.Activity)
		e = v
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return e, nil
}

// Kinds lists every outbound event type.
func Kinds() []Type {
	out := make([]Type, 0, len(controlTypes)+len(domainTypes))
	out = append(out, controlTypes...)
	return append(out, domainTypes...)
}

// DomainKinds lists the event types producers may emit.
func DomainKinds() []Type {
	return append([]Type(nil), domainTypes...)
}

// IsDomain reports whether t is a producer event type.
func IsDomain(t Type) bool {
	for _, d := range domainTypes {
		if d == t {
			return true
		}
	}
	return false
}

// Strings converts types to their wire names.
func Strings(types []Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
