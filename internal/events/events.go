package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"regcorpus/internal/correlation"
)

// Publisher delivers a message body to a topic.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// Event is the payload announced on every corpus topic.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	RunID       string    `json:"run_id"`
	SourceID    string    `json:"source_id,omitempty"`
	Path        string    `json:"path,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Count       int       `json:"count,omitempty"`
	At          time.Time `json:"at"`
}

// NewEvent stamps a fresh id, the run id from ctx and the current time.
func NewEvent(ctx context.Context, topic string) Event {
	return Event{
		ID:    uuid.New().String(),
		Type:  topic,
		RunID: correlation.RunID(ctx),
		At:    time.Now().UTC(),
	}
}

func NewNSQPublisher(addr string) (*nsq.Producer, error) {
	producer, err := nsq.NewProducer(addr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq producer error: %w", err)
	}
	producer.SetLoggerLevel(nsq.LogLevelWarning)
	return producer, nil
}

// Noop drops every message. Used when NSQD_HOST is unset.
type Noop struct{}

func (Noop) Publish(string, []byte) error { return nil }

// Emitter publishes events best effort: failures are logged and swallowed.
type Emitter struct {
	pub    Publisher
	logger *slog.Logger
}

func NewEmitter(pub Publisher, logger *slog.Logger) *Emitter {
	if pub == nil {
		pub = Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{pub: pub, logger: logger}
}

func (e *Emitter) Emit(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to marshal event", "topic", ev.Type, "error", err)
		return
	}
	if err := e.pub.Publish(ev.Type, body); err != nil {
		e.logger.WarnContext(ctx, "failed to publish event", "topic", ev.Type, "error", err)
	}
}
