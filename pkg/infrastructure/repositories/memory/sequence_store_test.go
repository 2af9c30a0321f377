package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

func TestSequenceStore(t *testing.T) {
	store := NewSequenceStore()
	ctx := context.Background()

	if _, ok, _ := store.Next(ctx, "OATS"); ok {
		t.Fatalf("Expected no stored value")
	}
	if err := store.Commit(ctx, "OATS", 393); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if n, ok, _ := store.Next(ctx, "OATS"); !ok || n != 393 {
		t.Errorf("Expected 393, got %d (ok=%v)", n, ok)
	}
	if err := store.Commit(ctx, "OATS", 392); err == nil {
		t.Errorf("Expected error moving backwards")
	}
}

func TestOrderRecorder(t *testing.T) {
	recorder := NewOrderRecorder()
	recorder.FailFor("9", errors.New("rejected"))
	ctx := context.Background()
	line := &entities.ExpandedLine{LineNo: 1, DestinationID: "5"}

	id, err := recorder.CreateOrder(ctx, entities.OrderHeader{DestinationID: "5", OrderReference: "OATS00391"}, []*entities.ExpandedLine{line})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if id != "SO00001" {
		t.Errorf("Expected SO00001, got %s", id)
	}
	line.UnitCount = 99

	if _, err := recorder.CreateOrder(ctx, entities.OrderHeader{DestinationID: "9"}, nil); err == nil {
		t.Errorf("Expected failure for destination 9")
	}

	orders := recorder.Orders()
	if len(orders) != 1 {
		t.Fatalf("Expected 1 recorded order, got %d", len(orders))
	}
	if orders[0].Lines[0].UnitCount != 0 {
		t.Errorf("Expected recorded lines to be copies")
	}
}
