package version

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

// Sink durably stores a Collection, replacing whatever it held for the asset before
type Sink interface {
	Persist(ctx context.Context, collection asset.Collection) error
}

// MultiSink persists to every Sink, in order
type MultiSink []Sink

// Persist tries every Sink even if an earlier one fails, and returns the first failure
func (m MultiSink) Persist(ctx context.Context, collection asset.Collection) error {
	var firstErr error
	for idx, s := range m {
		if err := s.Persist(ctx, collection); err != nil {
			log.Error().
				Err(err).
				Int("sink_idx", idx).
				Uint64("asset_id", uint64(collection.AssetId)).
				Msg("Failed to persist versions")
			if firstErr == nil {
				firstErr = SinkErr{Underlying: err}
			}
		}
	}
	return firstErr
}

type SinkErr struct {
	Underlying error
}

func (e SinkErr) Error() string {
	return fmt.Sprintf("Failed to persist versions: %v", e.Underlying)
}

func (e SinkErr) Unwrap() error {
	return e.Underlying
}

// MockSink records everything it was asked to persist
type MockSink struct {
	mu sync.Mutex

	PersistCalled   uint
	Persisted       []asset.Collection
	PersistOverride func(collection asset.Collection) error
}

func (m *MockSink) Persist(ctx context.Context, collection asset.Collection) error {
	m.mu.Lock()
	m.PersistCalled++
	m.Persisted = append(m.Persisted, collection)
	m.mu.Unlock()
	if m.PersistOverride != nil {
		return m.PersistOverride(collection)
	} else {
		return nil
	}
}

// Snapshots returns copies of everything persisted so far
func (m *MockSink) Snapshots() []asset.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]asset.Collection, len(m.Persisted))
	copy(out, m.Persisted)
	return out
}
