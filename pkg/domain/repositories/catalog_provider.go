package repositories

import (
	"context"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// CatalogProvider provides access to the product-variant catalog.
// An empty reference list means "all variants". References with no
// match are simply absent from the result.
type CatalogProvider interface {
	GetVariants(ctx context.Context, refs []entities.ReferenceCode) ([]*entities.ProductVariant, error)
}
