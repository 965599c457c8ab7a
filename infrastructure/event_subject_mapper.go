package infrastructure

import (
	"fmt"

	"jackpot/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return "ledger.balance_changed"
	case events.EventTypeOwnerChanged:
		return "ledger.owner_changed"
	case events.EventTypeJackpotCreated:
		return "jackpot.created"
	case events.EventTypeTicketPurchased:
		return "jackpot.ticket_purchased"
	case events.EventTypeDrawCompleted:
		return "jackpot.draw_completed"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "ledger.balance_changed":
		return events.EventTypeBalanceChange
	case "ledger.owner_changed":
		return events.EventTypeOwnerChanged
	case "jackpot.created":
		return events.EventTypeJackpotCreated
	case "jackpot.ticket_purchased":
		return events.EventTypeTicketPurchased
	case "jackpot.draw_completed":
		return events.EventTypeDrawCompleted
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"ledger.balance_changed",
		"ledger.owner_changed",
		"jackpot.created",
		"jackpot.ticket_purchased",
		"jackpot.draw_completed",
	}
}
