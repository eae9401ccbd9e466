package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wagerbot/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher is the transport the forwarder writes to
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// EventEnvelope wraps a forwarded event with its identity and origin
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventForwarder republishes committed bus events to a message broker
type EventForwarder struct {
	publisher     MessagePublisher
	sourceService string
	now           func() time.Time
}

// NewEventForwarder creates a forwarder tagging envelopes with sourceService
func NewEventForwarder(publisher MessagePublisher, sourceService string) *EventForwarder {
	return &EventForwarder{
		publisher:     publisher,
		sourceService: sourceService,
		now:           time.Now,
	}
}

// SubjectFor maps an event type to its broker subject
func SubjectFor(eventType events.EventType) string {
	return BetEventSubjectPrefix + string(eventType)
}

// Register subscribes the forwarder to every event the core publishes
func (f *EventForwarder) Register(bus *events.Bus) {
	for _, eventType := range events.PublishedEventTypes() {
		bus.Subscribe(eventType, f.handle)
	}
}

func (f *EventForwarder) handle(ctx context.Context, event events.Event) {
	if err := f.Forward(ctx, event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to forward event")
	}
}

// Forward wraps the event in an envelope and publishes it
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now().UTC(),
		SourceService: f.sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := SubjectFor(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", envelope.EventID, err)
	}
	return nil
}
