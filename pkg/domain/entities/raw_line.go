package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawLine is one purchase-order item line as found in a source document.
// Numeric and date fields hold the text tokens as printed; coercion happens
// in the line validator.
type RawLine struct {
	DestinationID   DestinationID
	DestinationName string
	OrderNumber     OrderNumber
	OrderDate       string
	DeliveryDate    string
	Reference       ReferenceCode
	Description     string
	Size            string
	Pack            string
	OrderedQty      string
	Price           string

	// Amount is the printed line total, when the document has one
	Amount string

	// Provenance
	Document   string
	Page       int
	LineNumber int

	// Heuristic is set when quantity and price were picked by position
	// rather than by a labeled column layout.
	Heuristic bool
}

// ValidatedLine is a RawLine whose required fields are present and whose
// numeric fields have been coerced and checked.
type ValidatedLine struct {
	RawLine
	Quantity  decimal.Decimal
	CasePrice decimal.Decimal

	// LinePrice is the price of the whole line: the printed amount when
	// present, otherwise quantity times case price
	LinePrice    decimal.Decimal
	OrderDate    time.Time
	DeliveryDate time.Time
}
