package repositories

import "context"

// SequenceStore persists the next order-reference number per prefix
type SequenceStore interface {
	// Next returns the stored next number and whether one was stored
	Next(ctx context.Context, prefix string) (int, bool, error)
	Commit(ctx context.Context, prefix string, next int) error
}
