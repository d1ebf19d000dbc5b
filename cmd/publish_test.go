package main

import (
	"strings"
	"testing"

	"github.com/BookHive-Network/notifier/internal/bus"
	"github.com/BookHive-Network/notifier/internal/events"
)

func TestPublishEnvelopeFromFlags(t *testing.T) {
	opts := &publishOptions{
		audience:  bus.AudienceUser,
		userID:    "42",
		eventType: string(events.TypeUserActivity),
		data:      `{"action":"upload","credits":10}`,
	}
	payload, err := opts.envelope(nil)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	env, e, err := bus.DecodeEnvelope(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.UserID != "42" || e.Type() != events.TypeUserActivity {
		t.Fatalf("unexpected envelope %s", payload)
	}
}

func TestPublishEnvelopeFromStdin(t *testing.T) {
	raw := `{"audience":"channel","channel":"circle_3","event":{"type":"circle_message","data":{"text":"hi"}}}`
	payload, err := (&publishOptions{file: "-"}).envelope(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if string(payload) != raw {
		t.Fatalf("payload changed: %s", payload)
	}
}

func TestPublishEnvelopeRejectsInvalid(t *testing.T) {
	cases := []*publishOptions{
		{audience: bus.AudienceAll},
		{audience: bus.AudienceUser, eventType: string(events.TypeNotificationCreated), data: `{"id":"n1"}`},
		{audience: bus.AudienceAll, eventType: string(events.TypeWelcome), data: `{"message":"x"}`},
	}
	for i, opts := range cases {
		if _, err := opts.envelope(nil); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestCollectOverrides(t *testing.T) {
	cmd := newStartCmd()
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	if err := cmd.Flags().Parse([]string{"--ws-addr", ":9000", "--metrics-port", "9191"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	overrides, err := collectOverrides(cmd)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if overrides["server.ws_addr"] != ":9000" || overrides["metrics.port"] != 9191 {
		t.Fatalf("unexpected overrides %v", overrides)
	}
	if _, ok := overrides["logging.level"]; ok {
		t.Fatal("unset flag produced an override")
	}
}
