package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// failingQuerier records the arguments it was called with and fails
type failingQuerier struct {
	calls [][]any
}

func (q *failingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.calls = append(q.calls, args)
	return nil, errors.New("connection refused")
}

func TestQueryArgs(t *testing.T) {
	keys := []entities.DemandKey{
		{Reference: "R2", Destination: "9"},
		{Reference: "R1", Destination: "5"},
		{Reference: "R1", Destination: "9"},
	}

	refs, stores := queryArgs(keys)

	if strings.Join(refs, ",") != "R1,R2" {
		t.Errorf("Expected refs R1,R2, got %v", refs)
	}
	if strings.Join(stores, ",") != "5,9" {
		t.Errorf("Expected stores 5,9, got %v", stores)
	}
}

func TestHistoryRepository_NoKeysSkipsQuery(t *testing.T) {
	q := &failingQuerier{}
	snapshot, err := NewHistoryRepository(q).GetHistory(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(q.calls) != 0 {
		t.Errorf("Expected no queries, got %d", len(q.calls))
	}
	if len(snapshot.AvgDemand) != 0 || len(snapshot.StoreOnHand) != 0 {
		t.Errorf("Expected empty snapshot")
	}
}

func TestHistoryRepository_QueryErrorWrapped(t *testing.T) {
	q := &failingQuerier{}
	_, err := NewHistoryRepository(q).GetHistory(context.Background(), []entities.DemandKey{{Reference: "R1", Destination: "5"}})
	if err == nil || !strings.Contains(err.Error(), "average demand") {
		t.Fatalf("Expected wrapped average demand error, got %v", err)
	}
	if len(q.calls) != 1 || len(q.calls[0]) != 2 {
		t.Fatalf("Expected one query with two arguments, got %v", q.calls)
	}
}
