package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// RecordedOrder is one order accepted by the OrderRecorder
type RecordedOrder struct {
	ID     string
	Header entities.OrderHeader
	Lines  []*entities.ExpandedLine
}

// OrderRecorder is an in-memory OrderCreator that keeps what it was sent
type OrderRecorder struct {
	mu     sync.Mutex
	orders []RecordedOrder
	fail   map[entities.DestinationID]error
}

// NewOrderRecorder creates a new order recorder
func NewOrderRecorder() *OrderRecorder {
	return &OrderRecorder{fail: make(map[entities.DestinationID]error)}
}

// Verify interface compliance
var _ repositories.OrderCreator = (*OrderRecorder)(nil)

// FailFor makes CreateOrder return err for the given destination
func (r *OrderRecorder) FailFor(id entities.DestinationID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[id] = err
}

// CreateOrder records the order and returns a sequential identifier
func (r *OrderRecorder) CreateOrder(ctx context.Context, header entities.OrderHeader, lines []*entities.ExpandedLine) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[header.DestinationID]; err != nil {
		return "", err
	}

	id := fmt.Sprintf("SO%05d", len(r.orders)+1)
	r.orders = append(r.orders, RecordedOrder{
		ID:     id,
		Header: header,
		Lines:  entities.CloneLines(lines),
	})
	return id, nil
}

// Orders returns the recorded orders in submission order
func (r *OrderRecorder) Orders() []RecordedOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedOrder, len(r.orders))
	copy(out, r.orders)
	return out
}
