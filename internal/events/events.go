// Package events publishes domain events (status changes, completed matching
// runs) to Redis pub/sub or Kafka so the gateway can forward them to clients.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeApplicationCreated = "application.created"
	TypeApplicationStatus  = "application.status_changed"
	TypeSelectionCreated   = "selection.created"
	TypeSelectionStatus    = "selection.status_changed"
	TypeSelectionDeleted   = "selection.deleted"
	TypeMatchingCompleted  = "matching.completed"
	TypeJobCreated         = "job.created"
	TypeJobsExpired        = "job.expired"
	TypePaymentConfirmed   = "payment.confirmed"
)

// Event is a flat, JSON-serialisable notification. Key groups related
// events (the aggregate id) for partitioned transports.
type Event struct {
	Type string            `json:"type"`
	Key  string            `json:"key"`
	Data map[string]string `json:"data"`
	At   time.Time         `json:"at"`
}

// New builds an Event stamped with the current UTC time.
func New(typ, key string, data map[string]string) Event {
	return Event{Type: typ, Key: key, Data: data, At: time.Now().UTC()}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
