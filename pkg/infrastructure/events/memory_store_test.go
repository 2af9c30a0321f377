package events

import (
	"errors"
	"testing"
)

type recordingHandler struct {
	types []string
	fail  bool
}

func (h *recordingHandler) Handle(event Event) error {
	h.types = append(h.types, event.Type)
	if h.fail {
		return errors.New("handler failed")
	}
	return nil
}

func TestInMemoryEventStore_SequencePerRun(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	_, _ = store.Append(NewStageCompletedEvent("run-1", StageCompleted{Stage: "scan"}))
	_, _ = store.Append(NewStageCompletedEvent("run-2", StageCompleted{Stage: "scan"}))
	appended, err := store.Append(NewStageCompletedEvent("run-1", StageCompleted{Stage: "validate"}))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if appended.Sequence != 2 {
		t.Errorf("Expected sequence 2, got %d", appended.Sequence)
	}

	recorded, err := store.Run("run-1", 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(recorded))
	}
	if recorded[1].Payload.(StageCompleted).Stage != "validate" {
		t.Errorf("Expected validate stage, got %v", recorded[1].Payload)
	}

	from2, _ := store.Run("run-1", 2)
	if len(from2) != 1 {
		t.Errorf("Expected 1 event from sequence 2, got %d", len(from2))
	}

	all, _ := store.Since(1)
	if len(all) != 2 {
		t.Errorf("Expected 2 events from position 1, got %d", len(all))
	}

	missing, _ := store.Run("nope", 0)
	if len(missing) != 0 {
		t.Errorf("Expected no events for unknown run, got %d", len(missing))
	}

	if _, err := store.Append(NewEvent(StageCompletedEvent, "", nil)); err == nil {
		t.Error("Expected error for event without run id")
	}
}

func TestInMemoryEventStore_Subscribers(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	handler := &recordingHandler{fail: true}
	if err := store.Subscribe(handler, LineFlaggedEvent); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	var seen int
	_ = store.Subscribe(HandlerFunc(func(Event) error {
		seen++
		return nil
	}))

	_, _ = store.Append(NewEvent(LineFlaggedEvent, "run", LineFlagged{LineNo: 1}))
	_, _ = store.Append(NewEvent(OrderAssignedEvent, "run", OrderAssigned{OrderReference: "OATS00391"}))
	_, err := store.Append(NewEvent(StageCompletedEvent, "run", StageCompleted{}))
	if err != nil {
		t.Errorf("Expected handler failure not to surface, got %v", err)
	}

	if len(handler.types) != 1 || handler.types[0] != LineFlaggedEvent {
		t.Errorf("Expected handler to see only line.flagged, got %v", handler.types)
	}
	if seen != 3 {
		t.Errorf("Expected wildcard handler to see 3 events, got %d", seen)
	}

	if err := store.Subscribe(nil); err == nil {
		t.Error("Expected error subscribing a nil handler")
	}
}
