package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/probe"
)

type schedulerImpl struct {
	cron *cron.Cron

	scans probe.Scans

	// scans run with this; cancelled on Stop so that they stop probing new versions
	ctx    context.Context
	cancel context.CancelFunc

	idsToEntries map[asset.Id]scheduledScan

	// scans started by RunNow, which cron's Stop does not wait for
	runningNow sync.WaitGroup

	mu sync.Mutex
}

// scheduledScan keeps the chained job so that RunNow shares its SkipIfStillRunning guard
type scheduledScan struct {
	entryId cron.EntryID
	job     cron.Job
}

// Returns the default implementation of a scheduler that delegates to
// the standard robfig/cron
func NewScheduler(scans probe.Scans) probe.Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &schedulerImpl{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		scans:        scans,
		ctx:          ctx,
		cancel:       cancel,
		idsToEntries: make(map[asset.Id]scheduledScan),
	}
}

func (i *schedulerImpl) Schedule(assetId asset.Id, expression probe.ScheduleExpression) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	log.Info().
		Uint64("asset_id", uint64(assetId)).
		Str("expression", string(expression)).
		Msg("Scheduling scans to Cron")

	if scheduled, ok := i.idsToEntries[assetId]; ok {
		i.cron.Remove(scheduled.entryId)
		delete(i.idsToEntries, assetId)
	}
	cronJob := cron.NewChain(
		cron.Recover(zeroLogCronLogger{}),
		cron.SkipIfStillRunning(zeroLogCronLogger{}),
	).Then(cron.FuncJob(func() {
		i.runScan(assetId)
	}))

	entryId, err := i.cron.AddJob(string(expression), cronJob)
	if err != nil {
		return InvalidSchedule{Expression: expression, Underlying: err}
	}
	i.idsToEntries[assetId] = scheduledScan{entryId: entryId, job: cronJob}
	return nil
}

func (i *schedulerImpl) RunNow(assetId asset.Id) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	scheduled, ok := i.idsToEntries[assetId]
	if !ok {
		return NotScheduled{AssetId: assetId}
	}
	i.runningNow.Add(1)
	go func() {
		defer i.runningNow.Done()
		scheduled.job.Run()
	}()
	return nil
}

func (i *schedulerImpl) runScan(assetId asset.Id) {
	if i.ctx.Err() != nil {
		return
	}
	summary, err := i.scans.Scan(i.ctx, assetId)
	if err != nil {
		var unavailable asset.Unavailable
		if errors.As(err, &unavailable) {
			log.Warn().Err(err).Uint64("asset_id", uint64(assetId)).Msg("Asset unavailable, will try again at the next scheduled scan")
		} else {
			log.Error().Err(err).Uint64("asset_id", uint64(assetId)).Msg("Scheduled scan failed")
		}
		return
	}
	log.Info().
		Uint64("asset_id", uint64(assetId)).
		Str("run_id", string(summary.RunId)).
		Int("versions", len(summary.Collection.Versions)).
		Dur("took", summary.Elapsed).
		Msg("Scheduled scan complete")
}

func (i *schedulerImpl) Unschedule(assetId asset.Id) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if scheduled, ok := i.idsToEntries[assetId]; ok {
		log.Info().
			Uint64("asset_id", uint64(assetId)).
			Msg("Unscheduling scans from Cron")
		i.cron.Remove(scheduled.entryId)
		delete(i.idsToEntries, assetId)
		return true
	} else {
		return false
	}
}

func (i *schedulerImpl) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cron.Start()
}

func (i *schedulerImpl) Stop() context.Context {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cancel()
	cronDone := i.cron.Stop()
	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		i.runningNow.Wait()
		done()
	}()
	return ctx
}

type InvalidSchedule struct {
	Expression probe.ScheduleExpression
	Underlying error
}

func (e InvalidSchedule) Error() string {
	return fmt.Sprintf("Invalid schedule [%s]: %v", e.Expression, e.Underlying)
}

func (e InvalidSchedule) Unwrap() error {
	return e.Underlying
}

type NotScheduled struct {
	AssetId asset.Id
}

func (e NotScheduled) Error() string {
	return fmt.Sprintf("Asset [%d] is not scheduled", e.AssetId)
}

type zeroLogCronLogger struct {
}

func (z zeroLogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	if log.Info().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Info().Fields(formatted).Msg(msg)
	}
}

func (z zeroLogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if log.Error().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Error().Err(err).Fields(formatted).Msg(msg)
	}
}

// formatTimeValues formats any time.Time values as RFC3339 *and*
// returns the even-odd idx key-value pair slice as a map
func formatTimeValues(keysAndValues []interface{}) map[string]interface{} {
	formattedArgs := make(map[string]interface{}, len(keysAndValues)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		if s, ok := keysAndValues[idx].(string); ok {
			key = s
		} else {
			key = fmt.Sprint(keysAndValues[idx])
		}
		valueIdx := idx + 1
		if len(keysAndValues) > valueIdx {
			value := keysAndValues[valueIdx]
			if t, ok := value.(time.Time); ok {
				value = t.Format(time.RFC3339)
			}
			formattedArgs[key] = value
		}
	}
	return formattedArgs
}
