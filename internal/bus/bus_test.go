package bus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/events"
	"github.com/BookHive-Network/notifier/internal/workers"
)

type call struct {
	audience string
	target   string
	event    events.Event
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []call
	got   chan struct{}
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{got: make(chan struct{}, 16)}
}

func (f *fakeDispatcher) record(c call) int {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	f.got <- struct{}{}
	return 1
}

func (f *fakeDispatcher) BroadcastAll(e events.Event) int {
	return f.record(call{AudienceAll, "", e})
}

func (f *fakeDispatcher) SendToUser(userID string, e events.Event) int {
	return f.record(call{AudienceUser, userID, e})
}

func (f *fakeDispatcher) SendToChannel(channel string, e events.Event) int {
	return f.record(call{AudienceChannel, channel, e})
}

type fakeSubscriber struct {
	payloads [][]byte
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, h Handler) error {
	for _, p := range f.payloads {
		h(p)
	}
	<-ctx.Done()
	return nil
}

func TestDecodeEnvelope(t *testing.T) {
	raw := `{"audience":"user","userId":"42","event":{"type":"notification_created","data":{"id":"n1","title":"Hi"}}}`
	env, e, err := DecodeEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.UserID != "42" || e.Type() != events.TypeNotificationCreated {
		t.Fatalf("unexpected envelope %+v / %v", env, e.Type())
	}
	n, ok := e.(events.NotificationCreated)
	if !ok || n.Notification.ID != "n1" {
		t.Fatalf("unexpected event %#v", e)
	}
}

func TestDecodeEnvelopeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `nope`,
		"unknown field":    `{"audience":"all","extra":1,"event":{"type":"story_created","data":{}}}`,
		"unknown audience": `{"audience":"room","event":{"type":"story_created","data":{}}}`,
		"user no id":       `{"audience":"user","event":{"type":"notification_created","data":{}}}`,
		"channel no name":  `{"audience":"channel","event":{"type":"circle_message","data":{}}}`,
		"control event":    `{"audience":"all","event":{"type":"welcome","data":{"message":"x"}}}`,
		"missing data":     `{"audience":"all","event":{"type":"story_created"}}`,
		"bad data":         `{"audience":"all","event":{"type":"story_created","data":[1]}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := DecodeEnvelope([]byte(raw)); err == nil {
				t.Fatalf("expected rejection of %s", raw)
			}
		})
	}
}

func TestEnvelopeEncode(t *testing.T) {
	env := Envelope{
		Audience: AudienceChannel,
		Channel:  "circle_7",
		Event:    EnvelopeBody{Type: events.TypeCircleMessage, Data: json.RawMessage(`{"id":"m1","text":"hello"}`)},
	}
	b, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, e, err := DecodeEnvelope(b)
	if err != nil || got.Channel != "circle_7" || e.Type() != events.TypeCircleMessage {
		t.Fatalf("round trip: %+v %v", got, err)
	}

	if _, err := (Envelope{Audience: AudienceUser}).Encode(); err == nil {
		t.Fatal("encode should refuse an unroutable envelope")
	}
}

func TestRoute(t *testing.T) {
	d := newFakeDispatcher()
	e := events.StoryCreated{Story: events.Story{ID: "s1"}}

	Route(d, Envelope{Audience: AudienceAll}, e)
	Route(d, Envelope{Audience: AudienceUser, UserID: "u1"}, e)
	Route(d, Envelope{Audience: AudienceChannel, Channel: "c1"}, e)

	want := []call{{AudienceAll, "", e}, {AudienceUser, "u1", e}, {AudienceChannel, "c1", e}}
	for i, w := range want {
		if d.calls[i].audience != w.audience || d.calls[i].target != w.target {
			t.Fatalf("call %d: want %+v, got %+v", i, w, d.calls[i])
		}
	}
}

func TestIngressRoutesValidEnvelopes(t *testing.T) {
	sub := &fakeSubscriber{payloads: [][]byte{
		[]byte(`{"audience":"all","event":{"type":"resource_updated","data":{"id":"r1"}}}`),
		[]byte(`garbage`),
		[]byte(`{"audience":"user","userId":"9","event":{"type":"user_activity","data":{"credits":5}}}`),
	}}
	d := newFakeDispatcher()
	pool := workers.NewWorkerPool("bus-test", 1, 8)
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewIngress("fake", sub, d, pool).Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-d.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for dispatch %d", i)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) != 2 {
		t.Fatalf("want 2 dispatches, got %d", len(d.calls))
	}
	if d.calls[1].audience != AudienceUser || d.calls[1].target != "9" {
		t.Fatalf("unexpected second dispatch %+v", d.calls[1])
	}
}

func TestNewRejectsDisabledDriver(t *testing.T) {
	if _, err := New(context.Background(), config.BusConfig{Driver: config.BusNone}); err == nil {
		t.Fatal("expected error for driver none")
	}
	if _, err := New(context.Background(), config.BusConfig{Driver: config.BusNATS}); err == nil {
		t.Fatal("expected error for nats without url")
	}
}
