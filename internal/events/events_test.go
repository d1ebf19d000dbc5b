package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEncodeShape(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		typ   Type
		data  string
	}{
		{"welcome", Welcome{Message: "hello"}, TypeWelcome, `{"message":"hello"}`},
		{"authenticated", Authenticated{UserID: "u1"}, TypeAuthenticated, `{"userId":"u1"}`},
		{"auth error", AuthError{Message: "User ID is required"}, TypeAuthError, `{"message":"User ID is required"}`},
		{"subscribed", Subscribed{Channel: "circle_42"}, TypeSubscribed, `{"channel":"circle_42"}`},
		{"unsubscribed", Unsubscribed{Channel: "circle_42"}, TypeUnsubscribed, `{"channel":"circle_42"}`},
		{"pong", Pong{}, TypePong, `{}`},
		{"error", Error{Message: "Unknown message type: frobnicate"}, TypeError, `{"message":"Unknown message type: frobnicate"}`},
		{"circle message", CircleMessageSent{Message: CircleMessage{Text: "hi"}}, TypeCircleMessage, `{"text":"hi"}`},
		{"user activity", UserActivity{Activity: Activity{Credits: 10}}, TypeUserActivity, `{"credits":10}`},
		{"story", StoryCreated{Story: Story{ID: "1"}}, TypeStoryCreated, `{"id":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.event, fixedNow)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			f, err := ParseFrame(b)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if f.Type != tt.typ {
				t.Errorf("type: want %s, got %s", tt.typ, f.Type)
			}
			if string(f.Data) != tt.data {
				t.Errorf("data: want %s, got %s", tt.data, f.Data)
			}
			if !f.Timestamp.Equal(fixedNow) {
				t.Errorf("timestamp: want %v, got %v", fixedNow, f.Timestamp)
			}
		})
	}
}

func TestEncodeTimestampIsRFC3339(t *testing.T) {
	b, err := Encode(Pong{}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"timestamp":"2026-03-01T12:00:00Z"`) {
		t.Fatalf("unexpected frame: %s", b)
	}
}

func TestEncodeNil(t *testing.T) {
	if _, err := Encode(nil, fixedNow); err == nil {
		t.Fatal("expected error for nil event")
	}
}

func TestDecodeDomainEvents(t *testing.T) {
	e, err := Decode(TypeNotificationCreated, json.RawMessage(`{"id":"n1","userId":"u1","type":"like","message":"liked","read":false,"meta":{"storyId":"s9"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	n, ok := e.(NotificationCreated)
	if !ok {
		t.Fatalf("want NotificationCreated, got %T", e)
	}
	if n.Notification.UserID != "u1" || n.Notification.Meta["storyId"] != "s9" {
		t.Fatalf("unexpected notification: %+v", n.Notification)
	}

	for _, typ := range DomainKinds() {
		if _, err := Decode(typ, json.RawMessage(`{}`)); err != nil {
			t.Errorf("%s: empty object should decode: %v", typ, err)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		data string
	}{
		{"control type", TypeWelcome, `{"message":"x"}`},
		{"unknown type", Type("frobnicate"), `{}`},
		{"missing data", TypeStoryCreated, ``},
		{"null data", TypeStoryCreated, `null`},
		{"wrong shape", TypeResourceUpdated, `{"downloads":"many"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.typ, json.RawMessage(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestKinds(t *testing.T) {
	if got := len(Kinds()); got != 12 {
		t.Fatalf("want 12 kinds, got %d", got)
	}
	for _, typ := range DomainKinds() {
		if !IsDomain(typ) {
			t.Errorf("%s should be a domain kind", typ)
		}
	}
	if IsDomain(TypePong) {
		t.Error("pong is not a domain kind")
	}
}
