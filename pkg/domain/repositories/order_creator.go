package repositories

import (
	"context"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// OrderCreator submits one sales order to the target order-management system
// and returns the identifier it assigned.
type OrderCreator interface {
	CreateOrder(ctx context.Context, header entities.OrderHeader, lines []*entities.ExpandedLine) (string, error)
}
