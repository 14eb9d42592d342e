package probe

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

// RunId identifies a single scan of an asset
type RunId string

// Generates a random id
func GenerateRunId() RunId {
	return RunId(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

type OutcomeKind uint32

func (k OutcomeKind) String() string {
	return outcomeKindsToString[k]
}

const (
	RECORDED OutcomeKind = iota
	EXHAUSTED
	TRANSIENT
	FATAL
)

var outcomeKindsToString = map[OutcomeKind]string{
	RECORDED:  "RECORDED",
	EXHAUSTED: "EXHAUSTED",
	TRANSIENT: "TRANSIENT",
	FATAL:     "FATAL",
}

// Outcome of probing a single version.
//
// EXHAUSTED is the stopping signal, TRANSIENT only fails the probe for that version,
// FATAL stops the whole run.
type Outcome struct {
	Version asset.VersionNumber
	Kind    OutcomeKind
	Record  *asset.Record
	Err     error
}

// Settings for a Coordinator
type Settings struct {
	// How long to wait between spawning probes
	Interval time.Duration
	// Max number of probes in flight at once; 0 means no cap
	MaxInFlight uint
	// Max number of failed probes before the run gives up; 0 means no limit
	MaxFailures uint
	// When true, error payloads with a 5xx or 429 status are TRANSIENT rather than EXHAUSTED
	StrictExhaustion bool
}

var DefaultSettings = Settings{
	Interval:    150 * time.Millisecond,
	MaxInFlight: 32,
	MaxFailures: 10,
}

// RunState is shared by the coordinator loop and every probe it spawns.
//
// Only ever touched via atomic ops.
type RunState struct {
	nextVersion uint32
	stopped     uint32
	inFlight    int32
}

func newRunState() RunState {
	return RunState{nextVersion: 1}
}

// takeNextVersion is the fetch-and-increment that hands out version numbers
func (s *RunState) takeNextVersion() asset.VersionNumber {
	return asset.VersionNumber(atomic.AddUint32(&s.nextVersion, 1) - 1)
}

func (s *RunState) NextVersion() asset.VersionNumber {
	return asset.VersionNumber(atomic.LoadUint32(&s.nextVersion))
}

// stop latches the stopped flag, returning true only for the call that flipped it
func (s *RunState) stop() bool {
	return atomic.CompareAndSwapUint32(&s.stopped, 0, 1)
}

func (s *RunState) IsStopped() bool {
	return atomic.LoadUint32(&s.stopped) > 0
}

func (s *RunState) InFlight() int32 {
	return atomic.LoadInt32(&s.inFlight)
}

// Status is a point-in-time view of a run
type Status struct {
	RunId       RunId
	AssetId     asset.Id
	NextVersion asset.VersionNumber
	Stopped     bool
	InFlight    int32
	Records     int
	StartedAt   time.Time
}

// Summary of a finished run
type Summary struct {
	RunId      RunId
	AssetId    asset.Id
	Assigned   uint32
	Collection asset.Collection
	Failed     []asset.VersionNumber
	Elapsed    time.Duration
}

// TooManyFailures is returned when a run gave up because too many probes failed
type TooManyFailures struct {
	AssetId  asset.Id
	Failures uint
}

func (e TooManyFailures) Error() string {
	return fmt.Sprintf("Gave up probing asset [%d] after [%d] failed probes", e.AssetId, e.Failures)
}

// PersistFailed is returned when discovered versions could not be persisted
type PersistFailed struct {
	Version    asset.VersionNumber
	Underlying error
}

func (e PersistFailed) Error() string {
	return fmt.Sprintf("Could not persist after recording version [%d]: %v", e.Version, e.Underlying)
}

func (e PersistFailed) Unwrap() error {
	return e.Underlying
}
