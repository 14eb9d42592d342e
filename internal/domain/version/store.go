package version

import (
	"context"
	"sync"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

// Store is the in-memory Collection of discovered versions for a single run.
//
// All access goes through the mutex, so Snapshots are never taken mid-insert.
type Store struct {
	mu         sync.Mutex
	collection asset.Collection
}

// NewStore returns an empty Store for the given asset
func NewStore(assetId asset.Id) *Store {
	return &Store{
		collection: asset.NewCollection(assetId),
	}
}

// Insert adds the record and re-sorts. A record for an already-known version replaces it.
func (s *Store) Insert(record asset.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection.Upsert(record)
}

// Snapshot returns a read-consistent copy of the current Collection
func (s *Store) Snapshot() asset.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Copy()
}

// Len returns the number of records held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collection.Versions)
}

// InsertAndPersist inserts the record and hands a snapshot to the Sink while still holding
// the lock, so concurrent writers can never persist an older snapshot over a newer one.
//
// The record stays in the Store even if persisting fails; the next successful persist
// will include it.
func (s *Store) InsertAndPersist(ctx context.Context, record asset.Record, sink Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection.Upsert(record)
	return sink.Persist(ctx, s.collection.Copy())
}
