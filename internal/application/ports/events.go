package ports

import (
	"context"
	"time"
)

// Event types published by the application.
const (
	EventSyncCompleted  = "sync.completed"
	EventDatasetCreated = "dataset.created"
)

// Event is a domain event describing something that happened to a dataset.
type Event struct {
	Type      string         `json:"type"`
	DatasetID string         `json:"dataset_id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, datasetID string, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		DatasetID: datasetID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// EventPublisher delivers domain events. Publishing is best effort: callers
// log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}
