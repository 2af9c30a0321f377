package events

import (
	"time"
)

// Event is one fact recorded during a pipeline run. Sequence is assigned by
// the store and counts from 1 within each run.
type Event struct {
	Type     string    `json:"type"`
	RunID    string    `json:"run_id"`
	Sequence int       `json:"sequence"`
	At       time.Time `json:"at"`
	Payload  any       `json:"payload"`
}

// NewEvent creates an event for runID; the store assigns its sequence
func NewEvent(eventType, runID string, payload any) Event {
	return Event{
		Type:    eventType,
		RunID:   runID,
		At:      time.Now(),
		Payload: payload,
	}
}

// Handler receives the events it subscribed to
type Handler interface {
	Handle(event Event) error
}

// HandlerFunc adapts a function to a Handler
type HandlerFunc func(event Event) error

func (f HandlerFunc) Handle(event Event) error {
	return f(event)
}

// EventStore records events per run and fans them out to subscribers
type EventStore interface {
	Append(event Event) (Event, error)
	Run(runID string, fromSequence int) ([]Event, error)
	Since(position int) ([]Event, error)

	// Subscribe registers handler for eventTypes, or for every type when none are given
	Subscribe(handler Handler, eventTypes ...string) error
}
