package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpandedLine is one (purchase-order line, product variant) pairing ready for import
type ExpandedLine struct {
	LineNo          int             `json:"line_no"`
	DestinationID   DestinationID   `json:"destination_id"`
	DestinationName string          `json:"destination_name"`
	OrderNumber     OrderNumber     `json:"order_number"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryDate    time.Time       `json:"delivery_date"`
	Reference       ReferenceCode   `json:"reference"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Description     string          `json:"description"`
	UnitsPerOrder   Quantity        `json:"units_per_order"`
	OrderedQty      decimal.Decimal `json:"ordered_qty"`
	CasePrice       decimal.Decimal `json:"case_price"`
	UnitCount       Quantity        `json:"unit_count"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Warehouse       WarehouseCode   `json:"warehouse"`
	IsMultiProduct  bool            `json:"is_multi_product"`
	NeedsReview     bool            `json:"needs_review"`

	// Catalog stock snapshot for the line's warehouse
	OnHand    Quantity `json:"on_hand"`
	Available Quantity `json:"available"`

	OrderReference string `json:"order_reference,omitempty"`

	// Allocation annotations
	Flagged        bool     `json:"flagged"`
	FlagReason     string   `json:"flag_reason,omitempty"`
	ShortageDetail string   `json:"shortage_detail,omitempty"`
	StoreOnHand    Quantity `json:"store_on_hand"`
	HistAvgDemand  Quantity `json:"hist_avg_demand"`
}

// Clone returns a copy of the line
func (l *ExpandedLine) Clone() *ExpandedLine {
	c := *l
	return &c
}

// Key returns the history-table key for the line
func (l *ExpandedLine) Key() DemandKey {
	return DemandKey{Reference: l.Reference, Destination: l.DestinationID}
}

// Recompute sets TotalPrice from UnitCount and UnitPrice
func (l *ExpandedLine) Recompute() {
	l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.UnitCount))).Round(2)
}

// CloneLines deep-copies a line table
func CloneLines(lines []*ExpandedLine) []*ExpandedLine {
	out := make([]*ExpandedLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}
