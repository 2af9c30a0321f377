package expansion

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	testhelpers "github.com/vsinha/poimport/pkg/application/services/testing"
	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/memory"
)

type countingCatalog struct {
	*memory.CatalogRepository
	calls int
}

func (c *countingCatalog) GetVariants(ctx context.Context, refs []entities.ReferenceCode) ([]*entities.ProductVariant, error) {
	c.calls++
	return c.CatalogRepository.GetVariants(ctx, refs)
}

func TestExpander_SingleVariant(t *testing.T) {
	expander := NewExpander(testhelpers.BuildScenarioCatalog(), Config{})

	result, err := expander.Expand(context.Background(), []*entities.ValidatedLine{
		testhelpers.ValidatedLine("4500123", "101", "R1", 2, "24.00"),
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(result.Lines))
	}

	line := result.Lines[0]
	if line.UnitCount != 24 {
		t.Errorf("Expected unit count 24, got %d", line.UnitCount)
	}
	if !line.UnitPrice.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected unit price 1.00, got %s", line.UnitPrice)
	}
	if !line.TotalPrice.Equal(decimal.NewFromInt(24)) {
		t.Errorf("Expected total 24.00, got %s", line.TotalPrice)
	}
	if line.IsMultiProduct {
		t.Errorf("Expected single-product line")
	}
	if line.ProductID != "R1" {
		t.Errorf("Expected product id R1, got %s", line.ProductID)
	}
	if line.Warehouse != "CE" || line.OnHand != 500 {
		t.Errorf("Expected CE stock 500, got %s %d", line.Warehouse, line.OnHand)
	}
	if line.LineNo != 1 {
		t.Errorf("Expected line number 1, got %d", line.LineNo)
	}
}

func TestExpander_MultiVariantSplitsBundle(t *testing.T) {
	expander := NewExpander(testhelpers.BuildScenarioCatalog(), Config{})

	result, err := expander.Expand(context.Background(), []*entities.ValidatedLine{
		testhelpers.ValidatedLine("4500123", "101", "R2", 1, "12.00"),
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(result.Lines))
	}

	for i, line := range result.Lines {
		if line.UnitCount != 6 {
			t.Errorf("Line %d: expected unit count 6, got %d", i, line.UnitCount)
		}
		if !line.UnitPrice.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Line %d: expected unit price 1.00, got %s", i, line.UnitPrice)
		}
		if !line.IsMultiProduct {
			t.Errorf("Line %d: expected multi-product marker", i)
		}
	}
	if result.Lines[0].ProductID != "4890000000028" || result.Lines[1].ProductID != "4890000000035" {
		t.Errorf("Expected barcodes as product ids, got %s and %s", result.Lines[0].ProductID, result.Lines[1].ProductID)
	}
}

func TestExpander_Conservation(t *testing.T) {
	testCases := []struct {
		name    string
		factors []entities.Quantity
		qty     int64
	}{
		{"even split", []entities.Quantity{12, 12}, 1},
		{"remainder to first", []entities.Quantity{10, 4, 6}, 1},
		{"first factor drives bundle", []entities.Quantity{5, 24}, 3},
		{"more variants than units", []entities.Quantity{1, 1, 1, 1}, 2},
		{"zero factor treated as one", []entities.Quantity{0, 6}, 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := memory.NewCatalogRepository(len(tc.factors))
			for i, f := range tc.factors {
				catalog.AddVariant(testhelpers.MustCreateVariant(string(rune('a'+i)), "RX", "", "Variant", f))
			}
			expander := NewExpander(catalog, Config{})

			result, err := expander.Expand(context.Background(), []*entities.ValidatedLine{
				testhelpers.ValidatedLine("1", "5", "RX", tc.qty, "10.00"),
			})
			if err != nil {
				t.Fatalf("Expand failed: %v", err)
			}
			if len(result.Lines) != len(tc.factors) {
				t.Fatalf("Expected %d lines, got %d", len(tc.factors), len(result.Lines))
			}

			first := tc.factors[0]
			if first <= 0 {
				first = 1
			}
			expected := entities.Quantity(tc.qty) * first

			var sum entities.Quantity
			for _, line := range result.Lines {
				sum += line.UnitCount
				if line.UnitCount > result.Lines[0].UnitCount {
					t.Errorf("Expected first variant to hold the largest share, got %d > %d", line.UnitCount, result.Lines[0].UnitCount)
				}
			}
			if sum != expected {
				t.Errorf("Expected unit counts to sum to %d, got %d", expected, sum)
			}
			if result.Lines[0].ProductID != "RX" {
				t.Errorf("Expected reference fallback for missing barcode, got %s", result.Lines[0].ProductID)
			}
		})
	}
}

func TestExpander_PriceBasis(t *testing.T) {
	catalog := memory.NewCatalogRepository(2)
	catalog.AddVariant(testhelpers.MustCreateVariant("1", "RX", "A", "Small", 12))
	catalog.AddVariant(testhelpers.MustCreateVariant("2", "RX", "B", "Large", 6))
	line := testhelpers.ValidatedLine("1", "5", "RX", 1, "24.00")

	testCases := []struct {
		basis    PriceBasis
		expected []string
	}{
		{PerVariantFactor, []string{"2", "4"}},
		{BundleFactor, []string{"2", "2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.basis.String(), func(t *testing.T) {
			result, err := NewExpander(catalog, Config{PriceBasis: tc.basis}).Expand(context.Background(), []*entities.ValidatedLine{line})
			if err != nil {
				t.Fatalf("Expand failed: %v", err)
			}
			for i, want := range tc.expected {
				if !result.Lines[i].UnitPrice.Equal(decimal.RequireFromString(want)) {
					t.Errorf("Line %d: expected unit price %s, got %s", i, want, result.Lines[i].UnitPrice)
				}
			}
		})
	}
}

func TestExpander_UnmatchedReference(t *testing.T) {
	catalog := &countingCatalog{CatalogRepository: testhelpers.BuildScenarioCatalog()}
	expander := NewExpander(catalog, Config{})

	result, err := expander.Expand(context.Background(), []*entities.ValidatedLine{
		testhelpers.ValidatedLine("1", "5", "R1", 1, "12.00"),
		testhelpers.ValidatedLine("1", "5", "NOPE", 1, "12.00"),
		testhelpers.ValidatedLine("1", "9", "R1", 1, "12.00"),
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if catalog.calls != 1 {
		t.Errorf("Expected 1 catalog lookup, got %d", catalog.calls)
	}
	if len(result.Lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(result.Lines))
	}
	if result.Diagnostics.Count(entities.ReferenceMismatch) != 1 {
		t.Errorf("Expected 1 reference mismatch, got %d", result.Diagnostics.Count(entities.ReferenceMismatch))
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != "NOPE" {
		t.Errorf("Expected NOPE unmatched, got %v", result.Unmatched)
	}
}

func TestExpander_EmptyCatalogIsFatal(t *testing.T) {
	expander := NewExpander(memory.NewCatalogRepository(0), Config{})

	_, err := expander.Expand(context.Background(), []*entities.ValidatedLine{
		testhelpers.ValidatedLine("1", "5", "R1", 1, "12.00"),
	})
	if !errors.Is(err, entities.ErrCatalogEmpty) {
		t.Errorf("Expected ErrCatalogEmpty, got %v", err)
	}
}

func TestExpander_FractionalUnitsFloored(t *testing.T) {
	line := testhelpers.ValidatedLine("1", "5", "R1", 1, "12.00")
	line.Quantity = decimal.RequireFromString("1.5")

	catalog := memory.NewCatalogRepository(1)
	catalog.AddVariant(testhelpers.MustCreateVariant("1", "R1", "", "Rice", 5))

	result, err := NewExpander(catalog, Config{}).Expand(context.Background(), []*entities.ValidatedLine{line})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if result.Lines[0].UnitCount != 7 {
		t.Errorf("Expected floored unit count 7, got %d", result.Lines[0].UnitCount)
	}
	if len(result.Diagnostics) != 1 {
		t.Errorf("Expected 1 diagnostic, got %d", len(result.Diagnostics))
	}
}

func TestStaticWarehouses(t *testing.T) {
	resolve := StaticWarehouses("CE", map[entities.DestinationID]entities.WarehouseCode{"101": "CW"})
	if resolve("101") != "CW" {
		t.Errorf("Expected CW, got %s", resolve("101"))
	}
	if resolve("5") != "CE" {
		t.Errorf("Expected CE, got %s", resolve("5"))
	}
}

func TestParsePriceBasis(t *testing.T) {
	if b, err := ParsePriceBasis("bundle"); err != nil || b != BundleFactor {
		t.Errorf("Expected bundle basis, got %v %v", b, err)
	}
	if _, err := ParsePriceBasis("weighted"); err == nil {
		t.Errorf("Expected error for unknown basis")
	}
}
