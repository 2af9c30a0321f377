package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// SequenceStore keeps order-reference counters in memory
type SequenceStore struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequenceStore creates a new in-memory sequence store
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{next: make(map[string]int)}
}

// Verify interface compliance
var _ repositories.SequenceStore = (*SequenceStore)(nil)

// Next returns the stored next number for prefix
func (s *SequenceStore) Next(ctx context.Context, prefix string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.next[prefix]
	return n, ok, nil
}

// Commit stores the next number for prefix. Counters never move backwards.
func (s *SequenceStore) Commit(ctx context.Context, prefix string, next int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.next[prefix]; ok && next < current {
		return fmt.Errorf("sequence %s cannot move back from %d to %d", prefix, current, next)
	}
	s.next[prefix] = next
	return nil
}
