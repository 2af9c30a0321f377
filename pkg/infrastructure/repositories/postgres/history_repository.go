package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// Querier is the subset of pgxpool.Pool used by the history repository
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// averageDemandQuery averages monthly sales per product and store, rounded
// to whole units. Products and stores are addressed by their external codes.
const averageDemandQuery = `
SELECT p.item_id, s.store_number::text, ROUND(AVG(sp.total_quantity_sold))::bigint
FROM sales_performance sp
JOIN products p ON p.id = sp.product_id
JOIN stores s ON s.id = sp.store_id
WHERE p.item_id = ANY($1) AND s.store_number::text = ANY($2)
GROUP BY p.item_id, s.store_number`

// latestSnapshotQuery returns the most recent inventory snapshot per product and store
const latestSnapshotQuery = `
SELECT DISTINCT ON (p.item_id, s.store_number) p.item_id, s.store_number::text, inv.quantity::bigint
FROM inventory_snapshots inv
JOIN products p ON p.id = inv.product_id
JOIN stores s ON s.id = inv.store_id
WHERE p.item_id = ANY($1) AND s.store_number::text = ANY($2)
ORDER BY p.item_id, s.store_number, inv.snapshot_date DESC`

// HistoryRepository reads demand history and store snapshots from Postgres
type HistoryRepository struct {
	db Querier
}

// NewHistoryRepository wraps an existing connection pool or transaction
func NewHistoryRepository(db Querier) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Connect opens a pool for dsn and checks it is reachable
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach history database: %w", err)
	}
	return pool, nil
}

// Verify interface compliance
var _ repositories.HistoryProvider = (*HistoryRepository)(nil)

// GetHistory fetches both signals for the requested keys in two queries.
// Rows for combinations that were not requested are discarded.
func (r *HistoryRepository) GetHistory(ctx context.Context, keys []entities.DemandKey) (*repositories.HistorySnapshot, error) {
	snapshot := repositories.NewHistorySnapshot()
	if len(keys) == 0 {
		return snapshot, nil
	}

	refs, stores := queryArgs(keys)
	wanted := make(map[entities.DemandKey]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}

	if err := r.collect(ctx, averageDemandQuery, refs, stores, wanted, snapshot.AvgDemand); err != nil {
		return nil, fmt.Errorf("failed to query average demand: %w", err)
	}
	if err := r.collect(ctx, latestSnapshotQuery, refs, stores, wanted, snapshot.StoreOnHand); err != nil {
		return nil, fmt.Errorf("failed to query store snapshots: %w", err)
	}
	return snapshot, nil
}

func (r *HistoryRepository) collect(ctx context.Context, query string, refs, stores []string, wanted map[entities.DemandKey]bool, into map[entities.DemandKey]entities.Quantity) error {
	rows, err := r.db.Query(ctx, query, refs, stores)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ref, store string
		var qty int64
		if err := rows.Scan(&ref, &store, &qty); err != nil {
			return err
		}
		key := entities.DemandKey{Reference: entities.ReferenceCode(ref), Destination: entities.DestinationID(store)}
		if wanted[key] {
			into[key] = entities.Quantity(qty)
		}
	}
	return rows.Err()
}

// queryArgs returns the distinct references and destinations, sorted
func queryArgs(keys []entities.DemandKey) ([]string, []string) {
	refSet := make(map[string]bool)
	storeSet := make(map[string]bool)
	for _, key := range keys {
		refSet[string(key.Reference)] = true
		storeSet[string(key.Destination)] = true
	}
	return sortedKeys(refSet), sortedKeys(storeSet)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
