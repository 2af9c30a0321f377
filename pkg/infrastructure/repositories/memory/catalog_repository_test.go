package memory

import (
	"context"
	"testing"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

func variant(t *testing.T, id, ref string, upo entities.Quantity) *entities.ProductVariant {
	t.Helper()
	v, err := entities.NewProductVariant(id, entities.ReferenceCode(ref), "", "Variant "+id, upo)
	if err != nil {
		t.Fatalf("Failed to create variant: %v", err)
	}
	return v
}

func TestCatalogRepository_GetVariants(t *testing.T) {
	repo := NewCatalogRepository(4)
	_ = repo.LoadVariants([]*entities.ProductVariant{
		variant(t, "1", "R1", 12),
		variant(t, "2", "R2", 12),
		variant(t, "3", "R2", 6),
	})

	testCases := []struct {
		name        string
		refs        []entities.ReferenceCode
		expectedIDs []string
	}{
		{"all when empty", nil, []string{"1", "2", "3"}},
		{"insertion order per reference", []entities.ReferenceCode{"R2"}, []string{"2", "3"}},
		{"duplicates collapsed", []entities.ReferenceCode{"R1", "R1"}, []string{"1"}},
		{"unknown contributes nothing", []entities.ReferenceCode{"R9", "R1"}, []string{"1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.GetVariants(context.Background(), tc.refs)
			if err != nil {
				t.Fatalf("GetVariants failed: %v", err)
			}
			if len(got) != len(tc.expectedIDs) {
				t.Fatalf("Expected %d variants, got %d", len(tc.expectedIDs), len(got))
			}
			for i, id := range tc.expectedIDs {
				if got[i].ID != id {
					t.Errorf("Position %d: expected variant %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}

	if repo.Size() != 3 {
		t.Errorf("Expected size 3, got %d", repo.Size())
	}
}

func TestCatalogRepository_CancelledContext(t *testing.T) {
	repo := NewCatalogRepository(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.GetVariants(ctx, nil); err == nil {
		t.Errorf("Expected error for cancelled context")
	}
}

func TestHistoryRepository_GetHistory(t *testing.T) {
	repo := NewHistoryRepository()
	known := entities.DemandKey{Reference: "R1", Destination: "5"}
	onlyOnHand := entities.DemandKey{Reference: "R2", Destination: "5"}
	repo.SetAverageDemand(known, 18)
	repo.SetStoreOnHand(known, 4)
	repo.SetStoreOnHand(onlyOnHand, 7)

	snapshot, err := repo.GetHistory(context.Background(), []entities.DemandKey{
		known, onlyOnHand, {Reference: "R9", Destination: "9"},
	})
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if snapshot.AvgDemand[known] != 18 || snapshot.StoreOnHand[known] != 4 {
		t.Errorf("Expected 18/4, got %d/%d", snapshot.AvgDemand[known], snapshot.StoreOnHand[known])
	}
	if _, ok := snapshot.AvgDemand[onlyOnHand]; ok {
		t.Errorf("Expected absent average demand for %v", onlyOnHand)
	}
	if len(snapshot.AvgDemand) != 1 || len(snapshot.StoreOnHand) != 2 {
		t.Errorf("Expected 1 demand and 2 on-hand entries, got %d and %d", len(snapshot.AvgDemand), len(snapshot.StoreOnHand))
	}
}
