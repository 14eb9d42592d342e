package probe

import (
	"context"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

// ScheduleExpression is a standard cron expression or descriptor, e.g. "@every 1h"
type ScheduleExpression string

// Scans runs a single scan of an asset. *Scanner satisfies it
type Scans interface {
	Scan(ctx context.Context, assetId asset.Id) (*Summary, error)
}

// Scheduler runs a fresh scan of an asset whenever its schedule fires.
//
// A scan that is still running when its schedule fires again is not overlapped; the
// firing is skipped.
type Scheduler interface {

	// Schedule (re)schedules scans of the given asset
	Schedule(assetId asset.Id, expression ScheduleExpression) error

	// RunNow starts a scan of a scheduled asset right away, in the background, subject to the
	// same no-overlap rule as scheduled scans
	RunNow(assetId asset.Id) error

	// Unschedule returns true if the asset had been scheduled
	Unschedule(assetId asset.Id) bool

	// Start the scheduler in the background
	Start()

	// Stop the scheduler; the returned context is done once running scans have finished
	Stop() context.Context
}
