package probe

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/delivery"
	"github.com/lloydmeta/assetversions/internal/domain/tracing"
	"github.com/lloydmeta/assetversions/internal/domain/version"
)

// Coordinator runs the probing loop for a single asset: every Interval it hands the next
// version number to a new probe goroutine, until a probe finds that the version does not exist.
//
// Probes that were already spawned when the stop flag is set are allowed to finish; Run
// only returns after all of them have.
type Coordinator struct {
	runId          RunId
	assetId        asset.Id
	metadataClient delivery.MetadataClient
	prober         delivery.LocationProber
	store          *version.Store
	sink           version.Sink
	tracer         tracing.Tracer
	settings       Settings

	state RunState
	slots chan struct{} // nil when MaxInFlight is 0

	mu        sync.Mutex // guards the 3 fields below
	startedAt time.Time
	failed    []asset.VersionNumber
	fatalErr  error

	getUTC func() time.Time
}

// NewCoordinator returns a Coordinator for the given asset; it does nothing until Run is called
func NewCoordinator(runId RunId, assetId asset.Id, metadataClient delivery.MetadataClient, prober delivery.LocationProber, sink version.Sink, tracer tracing.Tracer, settings Settings) *Coordinator {
	var slots chan struct{}
	if settings.MaxInFlight > 0 {
		slots = make(chan struct{}, settings.MaxInFlight)
	}
	return &Coordinator{
		runId:          runId,
		assetId:        assetId,
		metadataClient: metadataClient,
		prober:         prober,
		store:          version.NewStore(assetId),
		sink:           sink,
		tracer:         tracer,
		settings:       settings,
		state:          newRunState(),
		slots:          slots,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Run ticks until the stop flag is set or ctx is done, then waits for in-flight probes.
//
// ctx only controls ticking; in-flight probes are never cancelled.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	c.mu.Lock()
	c.startedAt = c.getUTC()
	c.mu.Unlock()
	var wg sync.WaitGroup
	ticker := time.NewTicker(c.settings.Interval)
	defer ticker.Stop()

	for c.waitForTick(ctx, ticker) {
		if !c.acquireSlot(ctx) {
			break
		}
		if c.state.IsStopped() {
			c.releaseSlot()
			break
		}
		v := c.state.takeNextVersion()
		atomic.AddInt32(&c.state.inFlight, 1)
		wg.Add(1)
		go func(v asset.VersionNumber) {
			defer wg.Done()
			defer c.releaseSlot()
			defer atomic.AddInt32(&c.state.inFlight, -1)
			c.handle(c.probe(v))
		}(v)
	}
	if ctx.Err() != nil {
		c.logger().Info().Msg("Probing interrupted, waiting for in-flight probes")
		c.state.stop()
	}
	wg.Wait()

	summary := c.summary()
	c.logger().Info().
		Uint32("assigned", summary.Assigned).
		Int("recorded", len(summary.Collection.Versions)).
		Int("failed", len(summary.Failed)).
		Dur("elapsed", summary.Elapsed).
		Msg("Probing complete")

	c.mu.Lock()
	defer c.mu.Unlock()
	return summary, c.fatalErr
}

// Status returns a view of the run as it is now
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	startedAt := c.startedAt
	c.mu.Unlock()
	return Status{
		RunId:       c.runId,
		AssetId:     c.assetId,
		NextVersion: c.state.NextVersion(),
		Stopped:     c.state.IsStopped(),
		InFlight:    c.state.InFlight(),
		Records:     c.store.Len(),
		StartedAt:   startedAt,
	}
}

// Snapshot returns the versions recorded so far
func (c *Coordinator) Snapshot() asset.Collection {
	return c.store.Snapshot()
}

func (c *Coordinator) waitForTick(ctx context.Context, ticker *time.Ticker) bool {
	if c.state.IsStopped() {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-ticker.C:
		return !c.state.IsStopped()
	}
}

// acquireSlot blocks while MaxInFlight probes are running. Every probe releases its slot when
// done, so a probe that sets the stop flag also wakes us up to notice it.
func (c *Coordinator) acquireSlot(ctx context.Context) bool {
	if c.slots == nil {
		return true
	}
	select {
	case c.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Coordinator) releaseSlot() {
	if c.slots != nil {
		<-c.slots
	}
}

func (c *Coordinator) probe(v asset.VersionNumber) Outcome {
	tx := c.tracer.BackgroundTx(context.Background(), "probe-version")
	defer tx.End()
	ctx := tx.Context()
	logger := c.logger().With().Uint32("version", uint32(v)).Logger()
	logger.Info().Msg("Checking for version")

	outcome := c.probeVersion(ctx, v)
	tx.SetResult(outcome.Kind.String())
	return outcome
}

func (c *Coordinator) probeVersion(ctx context.Context, v asset.VersionNumber) Outcome {
	metadata, err := c.metadataClient.Fetch(ctx, c.assetId, &v)
	if err != nil {
		return Outcome{Version: v, Kind: TRANSIENT, Err: err}
	}
	if !metadata.Found() {
		if c.settings.StrictExhaustion && isRetriableStatus(metadata.StatusCode) {
			return Outcome{Version: v, Kind: TRANSIENT, Err: asset.ErrorPayload{
				Version:    v,
				StatusCode: metadata.StatusCode,
				Payload:    string(metadata.Errors),
			}}
		}
		return Outcome{Version: v, Kind: EXHAUSTED}
	}
	location, ok := metadata.FirstLocation()
	if !ok {
		return Outcome{Version: v, Kind: TRANSIENT, Err: asset.NoLocations{AssetId: c.assetId, Version: v}}
	}
	date, err := c.prober.ProbeLastModified(ctx, location)
	if err != nil {
		return Outcome{Version: v, Kind: TRANSIENT, Err: err}
	}
	record := asset.Record{Version: v, Date: date}
	if err := c.store.InsertAndPersist(ctx, record, c.sink); err != nil {
		return Outcome{Version: v, Kind: FATAL, Record: &record, Err: PersistFailed{Version: v, Underlying: err}}
	}
	return Outcome{Version: v, Kind: RECORDED, Record: &record}
}

func (c *Coordinator) handle(outcome Outcome) {
	logger := c.logger().With().
		Uint32("version", uint32(outcome.Version)).
		Str("outcome", outcome.Kind.String()).
		Logger()
	switch outcome.Kind {
	case RECORDED:
		logger.Info().Str("date", string(outcome.Record.Date)).Msg("Recorded version")
	case EXHAUSTED:
		if c.state.stop() {
			logger.Info().Msg("No such version, stopping")
		} else {
			logger.Debug().Msg("No such version, already stopping")
		}
	case TRANSIENT:
		var missingHeader asset.MissingHeader
		if errors.As(outcome.Err, &missingHeader) {
			logger.Warn().Err(outcome.Err).Msg("Skipping version")
		} else {
			logger.Error().Err(outcome.Err).Msg("Failed to probe version")
		}
		failures := c.addFailure(outcome.Version)
		if c.settings.MaxFailures > 0 && failures >= c.settings.MaxFailures {
			c.fail(logger, TooManyFailures{AssetId: c.assetId, Failures: failures})
		}
	case FATAL:
		c.addFailure(outcome.Version)
		c.fail(logger, outcome.Err)
	}
}

func (c *Coordinator) addFailure(v asset.VersionNumber) uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, v)
	return uint(len(c.failed))
}

// fail stops the run, keeping the first fatal error
func (c *Coordinator) fail(logger zerolog.Logger, err error) {
	c.mu.Lock()
	if c.fatalErr == nil {
		c.fatalErr = err
	}
	c.mu.Unlock()
	if c.state.stop() {
		logger.Error().Err(err).Msg("Stopping run")
	}
}

func (c *Coordinator) summary() *Summary {
	c.mu.Lock()
	failed := make([]asset.VersionNumber, len(c.failed))
	copy(failed, c.failed)
	startedAt := c.startedAt
	c.mu.Unlock()
	sort.Slice(failed, func(i, j int) bool {
		return failed[i] < failed[j]
	})
	return &Summary{
		RunId:      c.runId,
		AssetId:    c.assetId,
		Assigned:   uint32(c.state.NextVersion()) - 1,
		Collection: c.store.Snapshot(),
		Failed:     failed,
		Elapsed:    c.getUTC().Sub(startedAt),
	}
}

func (c *Coordinator) logger() *zerolog.Logger {
	logger := log.With().
		Str("run_id", string(c.runId)).
		Uint64("asset_id", uint64(c.assetId)).
		Logger()
	return &logger
}

func isRetriableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}
