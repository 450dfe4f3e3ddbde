package store

import (
	"sync/atomic"
	"time"

	"github.com/fabric-testbed/slicer/internal/model"
)

// Store holds the current published snapshot for one inventory kind.
//
// Publication is a single-writer/multiple-reader handoff over an atomically
// swapped pointer - Current never blocks on Publish and readers never block
// each other. A returned snapshot must not be mutated.
type Store struct {
	kind    model.Kind
	current atomic.Pointer[model.Snapshot]
}

// New returns a Store primed with an empty snapshot, so Current is non-nil
// before the first refresh completes.
func New(kind model.Kind) *Store {
	s := &Store{kind: kind}
	s.current.Store(&model.Snapshot{Kind: kind, FetchedAt: time.Time{}})

	return s
}

// Kind returns the inventory kind this store serves.
func (s *Store) Kind() model.Kind {
	return s.kind
}

// Publish swaps in the given snapshot as current. The caller gives up
// ownership of the snapshot and its records.
func (s *Store) Publish(snap *model.Snapshot) {
	s.current.Store(snap)
}

// Current returns the latest published snapshot. It never blocks.
func (s *Store) Current() *model.Snapshot {
	return s.current.Load()
}

// Stores is the set of per-kind snapshot stores.
type Stores map[model.Kind]*Store

// NewStores returns a Store for every supported inventory kind.
func NewStores() Stores {
	stores := Stores{}
	for _, kind := range model.Kinds() {
		stores[kind] = New(kind)
	}

	return stores
}
