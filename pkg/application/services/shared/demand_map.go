package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// DemandContext holds the demand and stock picture for one reference in one warehouse
type DemandContext struct {
	Demand    entities.Quantity
	OnHand    entities.Quantity
	Available entities.Quantity
	Lines     int
}

// HasShortage reports whether demand exceeds what is available
func (dc *DemandContext) HasShortage() bool {
	return dc.Demand > dc.Available
}

// DemandMap manages demand context by reference and warehouse
type DemandMap map[string]*DemandContext

// NewDemandMap creates a new empty demand map
func NewDemandMap() DemandMap {
	return make(DemandMap)
}

// NewDemandMapFromLines totals unit counts per (reference, warehouse). The
// stock figures come from the first line seen for each group.
func NewDemandMapFromLines(lines []*entities.ExpandedLine) DemandMap {
	dm := make(DemandMap)
	for _, line := range lines {
		dm.Add(line)
	}
	return dm
}

// Add accumulates a line's unit count into its group
func (dm DemandMap) Add(line *entities.ExpandedLine) {
	key := dm.makeKey(line.Reference, line.Warehouse)
	ctx, ok := dm[key]
	if !ok {
		ctx = &DemandContext{OnHand: line.OnHand, Available: line.Available}
		dm[key] = ctx
	}
	ctx.Demand += line.UnitCount
	ctx.Lines++
}

// Get retrieves demand context for a reference and warehouse
func (dm DemandMap) Get(reference entities.ReferenceCode, warehouse entities.WarehouseCode) *DemandContext {
	return dm[dm.makeKey(reference, warehouse)]
}

// Set stores demand context for a reference and warehouse
func (dm DemandMap) Set(reference entities.ReferenceCode, warehouse entities.WarehouseCode, context *DemandContext) {
	dm[dm.makeKey(reference, warehouse)] = context
}

// Has checks if demand context exists for a reference and warehouse
func (dm DemandMap) Has(reference entities.ReferenceCode, warehouse entities.WarehouseCode) bool {
	_, exists := dm[dm.makeKey(reference, warehouse)]
	return exists
}

// Size returns the number of groups stored
func (dm DemandMap) Size() int {
	return len(dm)
}

// Keys returns every (reference, warehouse) pair in sorted key order
func (dm DemandMap) Keys() []GroupKey {
	raw := make([]string, 0, len(dm))
	for key := range dm {
		raw = append(raw, key)
	}
	sort.Strings(raw)

	keys := make([]GroupKey, 0, len(raw))
	for _, key := range raw {
		if ref, wh, found := dm.parseKey(key); found {
			keys = append(keys, GroupKey{Reference: ref, Warehouse: wh})
		}
	}
	return keys
}

// GetTotalDemand returns the total demand across all groups
func (dm DemandMap) GetTotalDemand() entities.Quantity {
	var total entities.Quantity
	for _, ctx := range dm {
		total += ctx.Demand
	}
	return total
}

// GroupKey names one allocation group
type GroupKey struct {
	Reference entities.ReferenceCode
	Warehouse entities.WarehouseCode
}

// makeKey creates a consistent key for reference and warehouse
func (dm DemandMap) makeKey(reference entities.ReferenceCode, warehouse entities.WarehouseCode) string {
	return fmt.Sprintf("%s|%s", reference, warehouse)
}

// parseKey extracts reference and warehouse from a key
func (dm DemandMap) parseKey(key string) (entities.ReferenceCode, entities.WarehouseCode, bool) {
	ref, wh, found := strings.Cut(key, "|")
	if !found {
		return "", "", false
	}
	return entities.ReferenceCode(ref), entities.WarehouseCode(wh), true
}

// String returns a string representation of the demand map for debugging
func (dm DemandMap) String() string {
	if len(dm) == 0 {
		return "DemandMap{empty}"
	}

	result := fmt.Sprintf("DemandMap{%d entries:\n", len(dm))
	for _, key := range dm.Keys() {
		ctx := dm.Get(key.Reference, key.Warehouse)
		result += fmt.Sprintf(
			"  %s@%s: demand=%d, onHand=%d, available=%d, lines=%d\n",
			key.Reference,
			key.Warehouse,
			ctx.Demand,
			ctx.OnHand,
			ctx.Available,
			ctx.Lines,
		)
	}
	result += "}"
	return result
}
