package events

import (
	"context"
	"sync"

	"challenger/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeHoldChanged         EventType = "hold_changed"
	EventTypeMatchStateChanged   EventType = "match_state_changed"
	EventTypeSettlementCompleted EventType = "settlement_completed"
	EventTypeDuplicatesRemoved   EventType = "duplicates_removed"
	EventTypeEmergencyAccess     EventType = "emergency_access"
)

// AllEventTypes lists every event type the service emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBalanceChange,
		EventTypeHoldChanged,
		EventTypeMatchStateChanged,
		EventTypeSettlementCompleted,
		EventTypeDuplicatesRemoved,
		EventTypeEmergencyAccess,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is emitted for every wallet debit or credit
type BalanceChangeEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	OldBalance int64     `json:"old_balance"`
	NewBalance int64     `json:"new_balance"`
	Change     int64     `json:"change"`
	Reason     string    `json:"reason"`
	MatchID    int64     `json:"match_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// HoldChangedEvent is emitted when a hold is placed, released or settled
type HoldChangedEvent struct {
	HoldID  int64             `json:"hold_id"`
	MatchID int64             `json:"match_id"`
	UserID  uuid.UUID         `json:"user_id"`
	Amount  int64             `json:"amount"`
	Status  models.HoldStatus `json:"status"`
}

func (e HoldChangedEvent) Type() EventType {
	return EventTypeHoldChanged
}

// MatchStateChangedEvent is emitted for every committed lifecycle transition
type MatchStateChangedEvent struct {
	MatchID     int64              `json:"match_id"`
	OldStatus   models.MatchStatus `json:"old_status"`
	NewStatus   models.MatchStatus `json:"new_status"`
	ActorID     uuid.UUID          `json:"actor_id"`
	StakeAmount int64              `json:"stake_amount"`
	MatchType   models.MatchType   `json:"match_type"`
}

func (e MatchStateChangedEvent) Type() EventType {
	return EventTypeMatchStateChanged
}

// SettlementCompletedEvent is emitted once per match when money has moved
type SettlementCompletedEvent struct {
	MatchID  int64               `json:"match_id"`
	WinnerID *uuid.UUID          `json:"winner_id,omitempty"`
	Outcome  models.MatchOutcome `json:"outcome"`
	Pot      int64               `json:"pot"`
	Fee      int64               `json:"fee"`
	Payout   int64               `json:"payout"`
}

func (e SettlementCompletedEvent) Type() EventType {
	return EventTypeSettlementCompleted
}

// DuplicatesRemovedEvent is emitted after a reconciliation fix run deletes rows
type DuplicatesRemovedEvent struct {
	DuplicatesRemoved int   `json:"duplicates_removed"`
	AmountRecovered   int64 `json:"amount_recovered"`
	AffectedUsers     int   `json:"affected_users"`
	Errors            int   `json:"errors"`
}

func (e DuplicatesRemovedEvent) Type() EventType {
	return EventTypeDuplicatesRemoved
}

// EmergencyAccessEvent is emitted whenever a break-glass credential is used
type EmergencyAccessEvent struct {
	Email     string    `json:"email"`
	UserID    uuid.UUID `json:"user_id"`
	Operation string    `json:"operation"`
}

func (e EmergencyAccessEvent) Type() EventType {
	return EventTypeEmergencyAccess
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

// SubscribeAll adds handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers.
// Handlers run on their own goroutines and a panicking handler is logged, not propagated.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

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

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush emits the pending events; called after a successful commit.
// Emission uses a fresh context so handlers outlive the request.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops the pending events; called after a rollback.
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discardedEventCount", len(b.pending)).Debug("Discarding transactional bus events")
	}
	b.pending = nil
}
