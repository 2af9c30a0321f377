package events

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// InMemoryEventStore keeps every run's events in memory. Handlers run
// synchronously in append order, outside the store lock, so a handler may
// read the store but a slow handler holds up the pipeline.
type InMemoryEventStore struct {
	mu       sync.RWMutex
	runs     map[string][]Event
	log      []Event
	byType   map[string][]Handler
	wildcard []Handler
	logger   *slog.Logger
}

// NewInMemoryEventStore creates an empty store; a nil logger discards handler errors
func NewInMemoryEventStore(logger *slog.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InMemoryEventStore{
		runs:   make(map[string][]Event),
		byType: make(map[string][]Handler),
		logger: logger,
	}
}

// Verify interface compliance
var _ EventStore = (*InMemoryEventStore)(nil)

// Append stamps the event with the next sequence of its run, records it and
// notifies subscribers. A failing handler is logged, never returned.
func (s *InMemoryEventStore) Append(event Event) (Event, error) {
	if event.RunID == "" {
		return Event{}, fmt.Errorf("event %s has no run id", event.Type)
	}

	s.mu.Lock()
	event.Sequence = len(s.runs[event.RunID]) + 1
	s.runs[event.RunID] = append(s.runs[event.RunID], event)
	s.log = append(s.log, event)
	handlers := make([]Handler, 0, len(s.byType[event.Type])+len(s.wildcard))
	handlers = append(handlers, s.byType[event.Type]...)
	handlers = append(handlers, s.wildcard...)
	s.mu.Unlock()

	for _, h := range handlers {
		if err := h.Handle(event); err != nil {
			s.logger.Warn("event handler failed", "type", event.Type, "run", event.RunID, "error", err)
		}
	}
	return event, nil
}

// Run returns a run's events starting at fromSequence
func (s *InMemoryEventStore) Run(runID string, fromSequence int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recorded := s.runs[runID]
	if fromSequence < 1 {
		fromSequence = 1
	}
	if fromSequence > len(recorded) {
		return []Event{}, nil
	}
	return append([]Event(nil), recorded[fromSequence-1:]...), nil
}

// Since returns every event from position onward, across runs
func (s *InMemoryEventStore) Since(position int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if position < 0 {
		position = 0
	}
	if position >= len(s.log) {
		return []Event{}, nil
	}
	return append([]Event(nil), s.log[position:]...), nil
}

func (s *InMemoryEventStore) Subscribe(handler Handler, eventTypes ...string) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(eventTypes) == 0 {
		s.wildcard = append(s.wildcard, handler)
		return nil
	}
	for _, eventType := range eventTypes {
		s.byType[eventType] = append(s.byType[eventType], handler)
	}
	return nil
}
