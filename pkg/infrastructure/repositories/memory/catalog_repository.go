package memory

import (
	"context"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// CatalogRepository provides in-memory product-variant storage.
// Variants sharing a reference are returned in insertion order.
type CatalogRepository struct {
	variants []*entities.ProductVariant
	byRef    map[entities.ReferenceCode][]int
}

// NewCatalogRepository creates a new in-memory catalog repository
func NewCatalogRepository(expectedVariants int) *CatalogRepository {
	return &CatalogRepository{
		variants: make([]*entities.ProductVariant, 0, expectedVariants),
		byRef:    make(map[entities.ReferenceCode][]int, expectedVariants),
	}
}

// Verify interface compliance
var _ repositories.CatalogProvider = (*CatalogRepository)(nil)

// LoadVariants loads variants into the repository
func (r *CatalogRepository) LoadVariants(variants []*entities.ProductVariant) error {
	for _, v := range variants {
		r.AddVariant(v)
	}
	return nil
}

// AddVariant adds a variant to the repository
func (r *CatalogRepository) AddVariant(v *entities.ProductVariant) {
	r.byRef[v.Reference] = append(r.byRef[v.Reference], len(r.variants))
	r.variants = append(r.variants, v)
}

// GetVariants returns the variants for the given references, or every
// variant when refs is empty. Unknown references contribute nothing.
func (r *CatalogRepository) GetVariants(ctx context.Context, refs []entities.ReferenceCode) ([]*entities.ProductVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		out := make([]*entities.ProductVariant, len(r.variants))
		copy(out, r.variants)
		return out, nil
	}

	seen := make(map[entities.ReferenceCode]bool, len(refs))
	var out []*entities.ProductVariant
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		for _, idx := range r.byRef[ref] {
			out = append(out, r.variants[idx])
		}
	}
	return out, nil
}

// Size returns the number of variants stored
func (r *CatalogRepository) Size() int {
	return len(r.variants)
}
