package events

import (
	"context"
	"sync"

	"wagerbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBetCreated      EventType = "bet_created"
	EventTypeChoiceSubmitted EventType = "choice_submitted"
	EventTypeChoiceRecorded  EventType = "choice_recorded"
	EventTypeBetSettled      EventType = "bet_settled"
	EventTypeBetDeleted      EventType = "bet_deleted"
	EventTypeStatsUpdated    EventType = "stats_updated"
)

// PublishedEventTypes lists the event types the core emits after a successful save
func PublishedEventTypes() []EventType {
	return []EventType{
		EventTypeBetCreated,
		EventTypeChoiceRecorded,
		EventTypeBetSettled,
		EventTypeBetDeleted,
		EventTypeStatsUpdated,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetCreatedEvent is emitted once a new bet has been persisted
type BetCreatedEvent struct {
	BetID   int64             `json:"bet_id"`
	Name    string            `json:"name"`
	Creator string            `json:"creator"`
	Options models.BetOptions `json:"options"`
}

func (e BetCreatedEvent) Type() EventType {
	return EventTypeBetCreated
}

// ChoiceSubmittedEvent is raised by a delivery channel when a user picks a slot.
// It is independent of whichever UI widget produced it.
type ChoiceSubmittedEvent struct {
	BetID int64       `json:"bet_id"`
	User  string      `json:"user"`
	Slot  models.Slot `json:"slot"`
}

func (e ChoiceSubmittedEvent) Type() EventType {
	return EventTypeChoiceSubmitted
}

// ChoiceRecordedEvent is emitted once a user's choice has been persisted
type ChoiceRecordedEvent struct {
	BetID        int64        `json:"bet_id"`
	User         string       `json:"user"`
	Slot         models.Slot  `json:"slot"`
	PreviousSlot *models.Slot `json:"previous_slot,omitempty"`
}

func (e ChoiceRecordedEvent) Type() EventType {
	return EventTypeChoiceRecorded
}

// BetSettledEvent is emitted once a settled bet has been removed from the active set
type BetSettledEvent struct {
	BetID        int64       `json:"bet_id"`
	Name         string      `json:"name"`
	WinningSlot  models.Slot `json:"winning_slot"`
	WinningLabel string      `json:"winning_label"`
	Winners      []string    `json:"winners"`
	Losers       []string    `json:"losers"`
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// BetDeletedEvent is emitted once a bet has been deleted without settlement
type BetDeletedEvent struct {
	BetID int64 `json:"bet_id"`
}

func (e BetDeletedEvent) Type() EventType {
	return EventTypeBetDeleted
}

// StatsUpdatedEvent is emitted once outcome increments have been persisted
type StatsUpdatedEvent struct {
	Records []models.OutcomeRecord `json:"records"`
}

func (e StatsUpdatedEvent) Type() EventType {
	return EventTypeStatsUpdated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised during one store operation and only
// forwards them once the operation's save has succeeded.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful save
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Handlers outlive the request, so they get a detached context
	eventCtx := context.WithoutCancel(ctx)
	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// Discard is called after a failed save
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
