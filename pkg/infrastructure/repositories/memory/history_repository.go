package memory

import (
	"context"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// HistoryRepository provides in-memory demand history and store snapshots
type HistoryRepository struct {
	avgDemand   map[entities.DemandKey]entities.Quantity
	storeOnHand map[entities.DemandKey]entities.Quantity
}

// NewHistoryRepository creates a new in-memory history repository
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		avgDemand:   make(map[entities.DemandKey]entities.Quantity),
		storeOnHand: make(map[entities.DemandKey]entities.Quantity),
	}
}

// Verify interface compliance
var _ repositories.HistoryProvider = (*HistoryRepository)(nil)

// SetAverageDemand records the historical average demand for a key
func (r *HistoryRepository) SetAverageDemand(key entities.DemandKey, qty entities.Quantity) {
	r.avgDemand[key] = qty
}

// SetStoreOnHand records the latest store on-hand snapshot for a key
func (r *HistoryRepository) SetStoreOnHand(key entities.DemandKey, qty entities.Quantity) {
	r.storeOnHand[key] = qty
}

// LoadSnapshot merges a snapshot into the repository
func (r *HistoryRepository) LoadSnapshot(snapshot *repositories.HistorySnapshot) error {
	for key, qty := range snapshot.AvgDemand {
		r.avgDemand[key] = qty
	}
	for key, qty := range snapshot.StoreOnHand {
		r.storeOnHand[key] = qty
	}
	return nil
}

// GetHistory returns the stored values for the requested keys. Keys with
// no stored value are left out of the result.
func (r *HistoryRepository) GetHistory(ctx context.Context, keys []entities.DemandKey) (*repositories.HistorySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := repositories.NewHistorySnapshot()
	for _, key := range keys {
		if qty, ok := r.avgDemand[key]; ok {
			snapshot.AvgDemand[key] = qty
		}
		if qty, ok := r.storeOnHand[key]; ok {
			snapshot.StoreOnHand[key] = qty
		}
	}
	return snapshot, nil
}
