package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/memory"
)

// MustCreateVariant is a helper for tests - panics on validation error
func MustCreateVariant(
	id, reference, barcode, name string,
	unitsPerOrder entities.Quantity,
) *entities.ProductVariant {
	v, err := entities.NewProductVariant(id, entities.ReferenceCode(reference), barcode, name, unitsPerOrder)
	if err != nil {
		panic(err)
	}
	return v
}

// WithStock sets the stock level of a variant in one warehouse and returns it
func WithStock(v *entities.ProductVariant, warehouse string, onHand, available entities.Quantity) *entities.ProductVariant {
	v.SetStock(entities.WarehouseCode(warehouse), onHand, available)
	return v
}

// ValidatedLine builds a validated purchase-order line for tests. price is
// the line's total, so ("R1", 2, "24.00") is two cases at 12.00 each.
func ValidatedLine(order, destination, reference string, qty int64, price string) *entities.ValidatedLine {
	quantity := decimal.NewFromInt(qty)
	linePrice := decimal.RequireFromString(price)
	casePrice := linePrice.DivRound(quantity, 4)
	return &entities.ValidatedLine{
		RawLine: entities.RawLine{
			OrderNumber:     entities.OrderNumber(order),
			DestinationID:   entities.DestinationID(destination),
			DestinationName: "Store " + destination,
			Reference:       entities.ReferenceCode(reference),
			OrderedQty:      quantity.String(),
			Price:           casePrice.String(),
			Amount:          price,
		},
		Quantity:     quantity,
		CasePrice:    casePrice,
		LinePrice:    linePrice,
		OrderDate:    time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		DeliveryDate: time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
	}
}

// ExpandedLine builds an expanded line for aggregation and allocation tests
func ExpandedLine(destination, reference, warehouse string, units entities.Quantity, unitPrice string) *entities.ExpandedLine {
	line := &entities.ExpandedLine{
		DestinationID:   entities.DestinationID(destination),
		DestinationName: "Store " + destination,
		OrderNumber:     "4500" + entities.OrderNumber(destination),
		OrderDate:       time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		DeliveryDate:    time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
		Reference:       entities.ReferenceCode(reference),
		ProductID:       reference,
		UnitsPerOrder:   1,
		UnitCount:       units,
		UnitPrice:       decimal.RequireFromString(unitPrice),
		Warehouse:       entities.WarehouseCode(warehouse),
	}
	line.Recompute()
	return line
}

// BuildScenarioCatalog builds the catalog used by the end-to-end scenarios:
//
//	R1: one variant, 12 per case
//	R2: two variants, 12 per case each
//	R3: one variant with nothing on hand in CE
//	R4: one variant with 30 available in CE
func BuildScenarioCatalog() *memory.CatalogRepository {
	catalog := memory.NewCatalogRepository(5)
	_ = catalog.LoadVariants([]*entities.ProductVariant{
		WithStock(MustCreateVariant("1", "R1", "4890000000011", "Rice 5kg", 12), "CE", 500, 500),
		WithStock(MustCreateVariant("2", "R2", "4890000000028", "Noodles Chicken", 12), "CE", 100, 100),
		WithStock(MustCreateVariant("3", "R2", "4890000000035", "Noodles Beef", 12), "CE", 100, 100),
		WithStock(MustCreateVariant("4", "R3", "4890000000042", "Soy Sauce", 6), "CE", 0, 0),
		WithStock(MustCreateVariant("5", "R4", "4890000000059", "Sesame Oil", 1), "CE", 80, 30),
	})
	return catalog
}

// BuildScenarioHistory builds history for destination 5 only
func BuildScenarioHistory() *memory.HistoryRepository {
	history := memory.NewHistoryRepository()
	history.SetAverageDemand(entities.DemandKey{Reference: "R1", Destination: "5"}, 18)
	history.SetStoreOnHand(entities.DemandKey{Reference: "R1", Destination: "5"}, 4)
	return history
}
