package repositories

import (
	"context"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// HistorySnapshot holds the external demand/inventory signals for a run.
// Keys absent from the backing store are absent from the maps.
type HistorySnapshot struct {
	AvgDemand   map[entities.DemandKey]entities.Quantity
	StoreOnHand map[entities.DemandKey]entities.Quantity
}

// NewHistorySnapshot creates an empty snapshot
func NewHistorySnapshot() *HistorySnapshot {
	return &HistorySnapshot{
		AvgDemand:   make(map[entities.DemandKey]entities.Quantity),
		StoreOnHand: make(map[entities.DemandKey]entities.Quantity),
	}
}

// HistoryProvider provides historical average demand and latest store on-hand snapshots
type HistoryProvider interface {
	GetHistory(ctx context.Context, keys []entities.DemandKey) (*HistorySnapshot, error)
}
