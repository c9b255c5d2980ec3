package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SEARCH_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the standard Event implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSearchCompleted builds the analytics event emitted after every
// successfully answered search request.
func NewSearchCompleted(userId, query string, sourceCount, tokensUsed int, degraded bool, durationMs int64) Event {
	return BaseEvent{
		Type: "SEARCH_COMPLETED",
		Data: map[string]interface{}{
			"user_id":      userId,
			"query":        query,
			"source_count": sourceCount,
			"tokens_used":  tokensUsed,
			"degraded":     degraded,
			"duration_ms":  durationMs,
		},
		OccurredAt: time.Now(),
	}
}
