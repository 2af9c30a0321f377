package entities

import "fmt"

// StockLevel is the catalog's stock picture for one product in one warehouse
type StockLevel struct {
	OnHand    Quantity
	Available Quantity
}

// ProductVariant is a catalog product. Several variants may share one reference code.
type ProductVariant struct {
	ID            string
	Reference     ReferenceCode
	Barcode       string
	Name          string
	UnitsPerOrder Quantity
	Stock         map[WarehouseCode]StockLevel
}

// NewProductVariant creates a validated ProductVariant. A missing or
// non-positive units-per-order factor is treated as 1.
func NewProductVariant(id string, reference ReferenceCode, barcode, name string, unitsPerOrder Quantity) (*ProductVariant, error) {
	if string(reference) == "" {
		return nil, fmt.Errorf("reference code cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if unitsPerOrder <= 0 {
		unitsPerOrder = 1
	}

	return &ProductVariant{
		ID:            id,
		Reference:     reference,
		Barcode:       barcode,
		Name:          name,
		UnitsPerOrder: unitsPerOrder,
		Stock:         make(map[WarehouseCode]StockLevel),
	}, nil
}

// Factor returns the units-per-order conversion, never less than 1
func (v *ProductVariant) Factor() Quantity {
	if v.UnitsPerOrder <= 0 {
		return 1
	}
	return v.UnitsPerOrder
}

// SetStock records on-hand and available quantities for a warehouse
func (v *ProductVariant) SetStock(warehouse WarehouseCode, onHand, available Quantity) {
	if v.Stock == nil {
		v.Stock = make(map[WarehouseCode]StockLevel)
	}
	v.Stock[warehouse] = StockLevel{OnHand: onHand, Available: available}
}

// StockAt returns the stock level for a warehouse; unknown warehouses report zero
func (v *ProductVariant) StockAt(warehouse WarehouseCode) StockLevel {
	return v.Stock[warehouse]
}
