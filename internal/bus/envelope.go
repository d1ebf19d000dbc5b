package bus

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BookHive-Network/notifier/internal/domain"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/events"
	"github.com/BookHive-Network/notifier/internal/notifier"
)

// Envelope audiences.
const (
	AudienceAll     = notifier.AudienceAll
	AudienceUser    = notifier.AudienceUser
	AudienceChannel = notifier.AudienceChannel
)

// Envelope is what producers publish on the bus: one domain event and the
// audience it is meant for.
type Envelope struct {
	Audience string       `json:"audience"`
	UserID   string       `json:"userId,omitempty"`
	Channel  string       `json:"channel,omitempty"`
	Event    EnvelopeBody `json:"event"`
}

// EnvelopeBody carries the event type and its raw data.
type EnvelopeBody struct {
	Type events.Type     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEnvelope parses and checks a bus payload. The returned event is
// ready to hand to a dispatcher.
func DecodeEnvelope(raw []byte) (Envelope, events.Event, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, nil, errors.InvalidEnvelopeError(err.Error())
	}

	switch env.Audience {
	case AudienceAll:
	case AudienceUser:
		if env.UserID == "" {
			return Envelope{}, nil, errors.InvalidEnvelopeError("user audience without userId")
		}
	case AudienceChannel:
		if env.Channel == "" {
			return Envelope{}, nil, errors.InvalidEnvelopeError("channel audience without channel")
		}
	default:
		return Envelope{}, nil, errors.InvalidEnvelopeError(fmt.Sprintf("unknown audience %q", env.Audience))
	}

	if !events.IsDomain(env.Event.Type) {
		return Envelope{}, nil, errors.InvalidEnvelopeError(fmt.Sprintf("event type %q cannot be published", env.Event.Type))
	}
	e, err := events.Decode(env.Event.Type, env.Event.Data)
	if err != nil {
		return Envelope{}, nil, errors.InvalidEnvelopeError(err.Error())
	}
	return env, e, nil
}

// Encode serializes the envelope and rejects anything an ingress would
// refuse to route.
func (e Envelope) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errors.InvalidEnvelopeError(err.Error())
	}
	if _, _, err := DecodeEnvelope(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Route hands the event to d according to the envelope's audience and
// returns the number of connections that accepted it.
func Route(d domain.Dispatcher, env Envelope, e events.Event) int {
	switch env.Audience {
	case AudienceUser:
		return d.SendToUser(env.UserID, e)
	case AudienceChannel:
		return d.SendToChannel(env.Channel, e)
	default:
		return d.BroadcastAll(e)
	}
}
