package eventbus

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/apexlog/pkg/eventjs"
	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/pkg/errors"
)

const (
	TypeEvent   = "apexlog.event"
	TypeSummary = "apexlog.summary"
	TypeError   = "apexlog.error"
)

type Envelope struct {
	Type    string          `json:"type"`
	Source  string          `json:"source,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEnvelope(typ, source string, payload any) (Envelope, error) {
	if typ == "" {
		return Envelope{}, errors.New("empty envelope type")
	}
	if payload == nil {
		return Envelope{Type: typ, Source: source}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrap(err, "marshal envelope payload")
	}
	return Envelope{Type: typ, Source: source, Payload: b}, nil
}

// EventPayload is a streamed event plus anything script modules attached.
// Time is the event's wall-clock time when the log date is known.
type EventPayload struct {
	parser.StreamItem
	Time   *time.Time     `json:"time,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (p *EventPayload) Annotate(res *eventjs.Result) {
	if res == nil {
		return
	}
	p.Tags = res.Tags
	p.Fields = res.Fields
}

// Publisher publishes one parse's output on TopicEvents, tagged with its
// source name.
type Publisher struct {
	Pub    message.Publisher
	Source string
}

func (p *Publisher) publish(typ string, payload any) error {
	env, err := NewEnvelope(typ, p.Source, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	return p.Pub.Publish(TopicEvents, message.NewMessage(watermill.NewUUID(), b))
}

func (p *Publisher) PublishEvent(ev EventPayload) error {
	return p.publish(TypeEvent, ev)
}

func (p *Publisher) PublishSummary(sum parser.Summary) error {
	return p.publish(TypeSummary, sum)
}

func (p *Publisher) PublishError(err error) error {
	if pe, ok := parser.AsError(err); ok {
		return p.publish(TypeError, pe)
	}
	return p.publish(TypeError, map[string]string{"message": err.Error()})
}

// Decode reads the envelope carried by msg.
func Decode(msg *message.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return Envelope{}, errors.Wrap(err, "unmarshal envelope")
	}
	return env, nil
}
