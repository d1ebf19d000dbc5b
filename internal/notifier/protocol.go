package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/events"
	"github.com/BookHive-Network/notifier/internal/metrics"
)

// Inbound message types.
const (
	InAuthenticate = "authenticate"
	InPing         = "ping"
	InSubscribe    = "subscribe"
	InUnsubscribe  = "unsubscribe"
)

// InboundTypes lists the message types a client may send.
func InboundTypes() []string {
	return []string{InAuthenticate, InPing, InSubscribe, InUnsubscribe}
}

// Inbound is a decoded client message. Pointer fields distinguish an
// absent field from an empty string.
type Inbound struct {
	Type    string  `json:"type"`
	UserID  *string `json:"userId,omitempty"`
	Channel *string `json:"channel,omitempty"`
}

// ParseInbound decodes a client frame. Anything that is not a JSON object
// with a non-empty string "type" is malformed; so are non-string userId
// or channel values.
func ParseInbound(raw []byte) (Inbound, error) {
	var msg Inbound
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Inbound{}, errors.MalformedMessageError(fmt.Errorf("payload is not a JSON object"))
	}
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return Inbound{}, errors.MalformedMessageError(err)
	}
	if msg.Type == "" {
		return Inbound{}, errors.MalformedMessageError(fmt.Errorf("missing type"))
	}
	return msg, nil
}

// HandleMessage applies one raw client frame to c. Every rejected message
// gets exactly one reply and leaves the connection open; the returned error
// is for logging only.
func (h *Hub) HandleMessage(c *Conn, raw []byte) error {
	msg, err := ParseInbound(raw)
	if err != nil {
		metrics.InboundMessage("unknown", len(raw))
		h.ReplyError(c, err)
		return err
	}
	metrics.InboundMessage(inboundLabel(msg.Type), len(raw))

	switch msg.Type {
	case InAuthenticate:
		userID := ""
		if msg.UserID != nil {
			userID = *msg.UserID
		}
		return h.Authenticate(c, userID)

	case InPing:
		h.Reply(c, events.Pong{})
		return nil

	case InSubscribe:
		if msg.Channel == nil {
			err := errors.MissingFieldError(InSubscribe, "channel")
			h.ReplyError(c, err)
			return err
		}
		h.Subscribe(c, *msg.Channel)
		return nil

	case InUnsubscribe:
		if msg.Channel == nil {
			err := errors.MissingFieldError(InUnsubscribe, "channel")
			h.ReplyError(c, err)
			return err
		}
		h.Unsubscribe(c, *msg.Channel)
		return nil

	default:
		err := errors.UnknownMessageTypeError(msg.Type)
		h.ReplyError(c, err)
		return err
	}
}

// ReplyError sends an error event carrying err's client-facing message.
func (h *Hub) ReplyError(c *Conn, err error) bool {
	return h.Reply(c, events.Error{Message: errors.UserMessage(err)})
}

func inboundLabel(t string) string {
	switch t {
	case InAuthenticate, InPing, InSubscribe, InUnsubscribe:
		return t
	default:
		return "unknown"
	}
}
