package pebblestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/vsinha/poimport/pkg/domain/repositories"
)

const sequenceKeyPrefix = "seq/"

// sequenceState is the stored value for one prefix
type sequenceState struct {
	Next      int       `json:"next"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SequenceStore persists order-reference counters in a local Pebble database
// so that consecutive runs continue numbering where the last one stopped.
type SequenceStore struct {
	mu sync.Mutex
	db *pebble.DB
}

// NewSequenceStore opens (or creates) the store in dir
func NewSequenceStore(dir string) (*SequenceStore, error) {
	opts := &pebble.Options{
		MemTableSize:          4 << 20,
		L0CompactionThreshold: 2,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &SequenceStore{db: db}, nil
}

// Verify interface compliance
var _ repositories.SequenceStore = (*SequenceStore)(nil)

// Close flushes and closes the database
func (s *SequenceStore) Close() error { return s.db.Close() }

func sequenceKey(prefix string) []byte { return []byte(sequenceKeyPrefix + prefix) }

func (s *SequenceStore) read(prefix string) (sequenceState, bool, error) {
	v, closer, err := s.db.Get(sequenceKey(prefix))
	if errors.Is(err, pebble.ErrNotFound) {
		return sequenceState{}, false, nil
	}
	if err != nil {
		return sequenceState{}, false, err
	}
	defer closer.Close()

	var st sequenceState
	if err := json.Unmarshal(v, &st); err != nil {
		return sequenceState{}, false, fmt.Errorf("decode sequence %s: %w", prefix, err)
	}
	return st, true, nil
}

// Next returns the stored next number for prefix
func (s *SequenceStore) Next(ctx context.Context, prefix string) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok, err := s.read(prefix)
	if err != nil {
		return 0, false, err
	}
	return st.Next, ok, nil
}

// Commit durably stores the next number for prefix. Counters never move backwards.
func (s *SequenceStore) Commit(ctx context.Context, prefix string, next int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.read(prefix)
	if err != nil {
		return err
	}
	if ok && next < current.Next {
		return fmt.Errorf("sequence %s cannot move back from %d to %d", prefix, current.Next, next)
	}

	bytes, err := json.Marshal(sequenceState{Next: next, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := s.db.Set(sequenceKey(prefix), bytes, pebble.Sync); err != nil {
		return fmt.Errorf("store sequence %s: %w", prefix, err)
	}
	return nil
}

// Prefixes lists every prefix with a stored counter, in key order
func (s *SequenceStore) Prefixes() ([]string, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(sequenceKeyPrefix),
		UpperBound: []byte("seq0"),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var prefixes []string
	for it.First(); it.Valid(); it.Next() {
		prefixes = append(prefixes, string(it.Key()[len(sequenceKeyPrefix):]))
	}
	return prefixes, it.Error()
}
