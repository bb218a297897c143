package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the status of an event in the outbox table.
type EventStatus string

const (
	// EventStatusPending indicates the event has been recorded but not yet published
	EventStatusPending EventStatus = "pending"
	// EventStatusProcessed indicates the event has been published downstream
	EventStatusProcessed EventStatus = "processed"
	// EventStatusFailed indicates publishing the event has failed
	EventStatusFailed EventStatus = "failed"
)

// Product lifecycle event types recorded in the outbox.
const (
	EventTypeProductCreated = "product.created"
	EventTypeProductUpdated = "product.updated"
	EventTypeProductDeleted = "product.deleted"
	EventTypeProductSold    = "product.sold"
)

// Event represents a product lifecycle event held in the outbox until
// it is published to the downstream queue.
type Event struct {
	ID          uuid.UUID
	EventType   string
	EventData   json.RawMessage
	Status      EventStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta initializes the event metadata including ID and timestamps.
func (e *Event) InitMeta() {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}
