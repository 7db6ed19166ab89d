package events

import (
	"encoding/json"
	"time"
)

const (
	CategoryUpdated     = "category.updated"
	CategoriesDeleted   = "categories.deleted"
	TransactionsDeleted = "transactions.deleted"
)

// Event is the JSON body published for every domain change.
type Event struct {
	Name      string      `json:"name"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(name string, payload interface{}) Event {
	return Event{
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type CategoryUpdatedPayload struct {
	OldType string `json:"oldType"`
	NewType string `json:"newType"`
	Color   string `json:"color"`
	Count   int64  `json:"count"`
}

type CategoriesDeletedPayload struct {
	Types    []string `json:"types"`
	Fallback string   `json:"fallback"`
	Count    int64    `json:"count"`
}

type TransactionsDeletedPayload struct {
	IDs []string `json:"ids"`
}
