package probe

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/delivery"
	"github.com/lloydmeta/assetversions/internal/domain/tracing"
	"github.com/lloydmeta/assetversions/internal/domain/version"
)

// Scanner checks that an asset exists, then runs a fresh Coordinator over it.
//
// It remembers the most recent Coordinator so that its progress can be observed.
type Scanner struct {
	metadataClient delivery.MetadataClient
	prober         delivery.LocationProber
	sink           version.Sink
	tracer         tracing.Tracer
	settings       Settings

	mu     sync.RWMutex
	latest *Coordinator
}

func NewScanner(metadataClient delivery.MetadataClient, prober delivery.LocationProber, sink version.Sink, tracer tracing.Tracer, settings Settings) *Scanner {
	return &Scanner{
		metadataClient: metadataClient,
		prober:         prober,
		sink:           sink,
		tracer:         tracer,
		settings:       settings,
	}
}

// Scan probes every version of the asset.
//
// Returns asset.Unavailable or asset.TransportError without probing anything if the latest
// version lookup fails. Otherwise returns the Summary along with TooManyFailures or
// PersistFailed if the run had to give up.
func (s *Scanner) Scan(ctx context.Context, assetId asset.Id) (*Summary, error) {
	tx := s.tracer.BackgroundTx(ctx, "scan")
	defer tx.End()

	if err := s.checkAvailable(tx.Context(), assetId); err != nil {
		tx.SetResult("unavailable")
		return nil, err
	}
	log.Info().Uint64("asset_id", uint64(assetId)).Msg("Asset found")

	coordinator := NewCoordinator(GenerateRunId(), assetId, s.metadataClient, s.prober, s.sink, s.tracer, s.settings)
	s.mu.Lock()
	s.latest = coordinator
	s.mu.Unlock()

	summary, err := coordinator.Run(tx.Context())
	if err != nil {
		tx.SetResult("failed")
	} else {
		tx.SetResult("complete")
	}
	return summary, err
}

func (s *Scanner) checkAvailable(ctx context.Context, assetId asset.Id) error {
	latest, err := s.metadataClient.Fetch(ctx, assetId, nil)
	if err != nil {
		return err
	}
	if !latest.Found() {
		return asset.Unavailable{AssetId: assetId, Reason: string(latest.Errors)}
	}
	if len(latest.Locations) == 0 {
		return asset.Unavailable{AssetId: assetId, Reason: "no locations"}
	}
	return nil
}

// LatestStatus returns the Status of the most recent run, if there has been one
func (s *Scanner) LatestStatus() (*Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	status := s.latest.Status()
	return &status, true
}

// LatestVersions returns what the most recent run has recorded so far, if there has been one
func (s *Scanner) LatestVersions() (*asset.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	snapshot := s.latest.Snapshot()
	return &snapshot, true
}
