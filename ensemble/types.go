// Package ensemble: domain types shared across the aggregation core.
// Errors live in errors.go, configuration in options.go, per the package
// conventions.
package ensemble

import (
	"github.com/katalvlaran/trajstat/qstate"
	"github.com/katalvlaran/trajstat/trajectory"
)

// StopReason tags why (or whether) an aggregation finished.
type StopReason int

const (
	// Unknown — no stopping policy has fired; the default for unbounded
	// aggregations and for every aggregation before its policy completes.
	Unknown StopReason = iota

	// NtrajReached — the fixed-count policy consumed its target number of
	// trajectories.
	NtrajReached

	// TargetToleranceReached — every per-observable, per-time standard
	// error dropped below its target tolerance.
	TargetToleranceReached

	// Merged — the aggregation is the output of the merge engine.
	Merged

	// Timeout — a finite policy was configured but did not complete; set
	// at setup and overwritten when the policy fires, so an externally
	// aborted run reports Timeout.
	Timeout
)

// String returns the stable lower-case tag for the reason.
func (r StopReason) String() string {
	switch r {
	case NtrajReached:
		return "ntraj reached"
	case TargetToleranceReached:
		return "target tolerance reached"
	case Merged:
		return "merged"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Tolerance is one (absolute, relative) tolerance pair of the adaptive
// stopping rule. The per-time target is Atol + Rtol*|average|.
type Tolerance struct {
	Atol float64 // absolute tolerance, finite and >= 0
	Rtol float64 // relative tolerance, finite and >= 0
}

// Processor is one reduction callback of the pipeline. It runs once per
// incoming trajectory, after shape validation, in registration order; it
// reads the trajectory and mutates only the aggregation state it owns.
// Processors must not fail: everything fallible is checked before the
// pipeline runs.
type Processor func(tr *trajectory.Trajectory)

// Stats is the read-only summary exposed to callers.
type Stats struct {
	NumTrajectories int        // trajectories consumed so far
	EndCondition    StopReason // current stop tag
	Keys            []string   // observable keys, in aggregation order
	GridLen         int        // shared time-grid length L (0 before first add)
}

// Aggregator is the running aggregation of one trajectory ensemble.
//
// Lifecycle: created empty by New (policy and observable set fixed), then
// mutated exclusively through Add or by being rebuilt via Merge. All
// derived views are pure projections over the accumulator fields.
//
// Concurrency: an Aggregator has a single logical owner; Add is not safe
// for concurrent invocation. Partition work across private instances and
// combine with Merge (reduce-tree), which needs no locks.
type Aggregator struct {
	keys []string
	cfg  Options

	// two-state lifecycle: false = uninitialized (no shape yet),
	// true = active (shapes locked by the first trajectory).
	active bool

	times []float64
	n     int

	// per-observable running moments, indexed [observable][time]
	sum   [][]float64
	sumSq [][]float64

	// density-equivalent state accumulators; nil when not tracked
	sumStates []*qstate.Operator
	sumFinal  *qstate.Operator

	seeds []trajectory.Seed
	runs  []*trajectory.Trajectory // retained raw runs; nil unless keepRuns

	procs  []Processor
	checks []func(tr *trajectory.Trajectory) error

	reason    StopReason
	estimated float64 // last tolerance-policy estimate (diagnostic)
}
