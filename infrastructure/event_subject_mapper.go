package infrastructure

import (
	"fmt"

	"challenger/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return "arena.wallets.balance_changed"
	case events.EventTypeHoldChanged:
		return "arena.escrow.hold_changed"
	case events.EventTypeMatchStateChanged:
		return "arena.matches.state_changed"
	case events.EventTypeSettlementCompleted:
		return "arena.matches.settled"
	case events.EventTypeDuplicatesRemoved:
		return "arena.reconciliation.duplicates_removed"
	case events.EventTypeEmergencyAccess:
		return "arena.security.emergency_access"
	default:
		return fmt.Sprintf("arena.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	all := events.AllEventTypes()
	subjects := make([]string, 0, len(all))
	for _, eventType := range all {
		subjects = append(subjects, m.MapEventToSubject(typedEvent(eventType)))
	}
	return subjects
}

type typedEvent events.EventType

func (e typedEvent) Type() events.EventType {
	return events.EventType(e)
}
