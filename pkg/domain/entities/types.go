package entities

import (
	"strconv"
	"strings"
)

// ReferenceCode is the vendor/catalog item code printed on a purchase-order line
type ReferenceCode string

// DestinationID identifies the store (or other delivery destination) an order is for
type DestinationID string

// WarehouseCode partitions inventory by regional fulfillment center
type WarehouseCode string

// OrderNumber is the customer's purchase-order number
type OrderNumber string

// Quantity represents an integer quantity of sellable units
type Quantity int64

// Less orders destination ids numerically when both are integers and
// lexically otherwise, so "5" sorts before "9" and "9" before "101".
func (d DestinationID) Less(other DestinationID) bool {
	a, errA := strconv.ParseInt(strings.TrimSpace(string(d)), 10, 64)
	b, errB := strconv.ParseInt(strings.TrimSpace(string(other)), 10, 64)
	if errA == nil && errB == nil {
		if a != b {
			return a < b
		}
		return d < other
	}
	if errA == nil {
		return true
	}
	if errB == nil {
		return false
	}
	return d < other
}

// DemandKey addresses the external history tables: one destination, one reference
type DemandKey struct {
	Reference   ReferenceCode
	Destination DestinationID
}

// String returns the key as "reference@destination"
func (k DemandKey) String() string {
	return string(k.Reference) + "@" + string(k.Destination)
}
