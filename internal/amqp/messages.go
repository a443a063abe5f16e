package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseUpdated EventType = "expense.updated"
	ExpenseDeleted EventType = "expense.deleted"
	BillPaid       EventType = "bill.paid"
	BillReminder   EventType = "bill.reminder"
)

// Event is a lightweight domain notification. It carries identifiers only;
// consumers load the current state from the database.
type Event struct {
	Type      EventType `json:"type"`
	OwnerID   string    `json:"owner_id"`
	EntityID  string    `json:"entity_id"`
	Period    string    `json:"period,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(t EventType, ownerID, entityID, period string) Event {
	return Event{
		Type:      t,
		OwnerID:   ownerID,
		EntityID:  entityID,
		Period:    period,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects messages without a type or owner.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if e.Type == "" || e.OwnerID == "" {
		return Event{}, errors.New("event missing type or owner")
	}
	return e, nil
}
