// Package ensemble: functional configuration for aggregations.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors,
//   - gatherOptions helper (internal).
//
// Option constructors only record values; New performs all validation and
// returns ErrConfiguration on nonsensical combinations, so setup failures
// surface as errors before any trajectory is accepted (no panics on user
// input).

package ensemble

// DEFAULTS - single source of truth for zero-value behavior.
const (
	// DefaultKeepRuns controls raw-trajectory retention. Retention is
	// memory-heavy (every run is kept) and therefore opt-in.
	DefaultKeepRuns = false

	// DefaultStoreFinalState controls final-state accumulation on its own;
	// state tracking always implies final-state tracking.
	DefaultStoreFinalState = false
)

// triBool distinguishes "unset" from explicit on/off so that the
// store-states default can depend on the observable set: when no
// observables are registered, states are stored by default (otherwise the
// aggregation would record nothing).
type triBool int

const (
	triUnset triBool = iota
	triOn
	triOff
)

// policyKind selects the stopping-criterion evaluator. The three policies
// are mutually exclusive and fixed at construction.
type policyKind int

const (
	policyUnbounded policyKind = iota
	policyFixed
	policyTolerance
)

// Option mutates internal options. Applied in order; last-writer-wins for
// plain flags. Combining two stopping policies is rejected by New.
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Fields are unexported; public entry points accept ...Option and resolve
// them via gatherOptions.
type Options struct {
	keepRuns    bool
	storeStates triBool
	storeFinal  bool

	policy    policyKind
	policySet int // how many policy options were applied (must be <= 1)
	targetN   int
	rawTols   []Tolerance

	// resolved by New: one pair per observable
	tols []Tolerance
}

// WithKeepRuns retains every added trajectory (a private copy), enabling
// the per-run views (RunsExpect, Trajectories, RunsPhotocurrent, ...).
func WithKeepRuns() Option {
	return func(o *Options) { o.keepRuns = true }
}

// WithStoreStates accumulates density-equivalent state sums at every grid
// point. Implies final-state tracking.
func WithStoreStates() Option {
	return func(o *Options) { o.storeStates = triOn }
}

// WithoutStoreStates suppresses state accumulation even when no observables
// are registered.
func WithoutStoreStates() Option {
	return func(o *Options) { o.storeStates = triOff }
}

// WithStoreFinalState accumulates only the final-state density sum.
func WithStoreFinalState() Option {
	return func(o *Options) { o.storeFinal = true }
}

// WithFixedCount stops after exactly n trajectories: the remaining estimate
// is n − count, and reaching 0 tags the aggregation NtrajReached.
// n must be >= 1 (validated by New).
func WithFixedCount(n int) Option {
	return func(o *Options) {
		o.policy = policyFixed
		o.policySet++
		o.targetN = n
	}
}

// WithTargetTolerance stops adaptively: after each trajectory (once more
// than one was consumed) the plug-in variance of every observable is
// compared against target = Atol + Rtol*|average| per time point, and the
// estimated total trajectory count is ceil(max(var/target²) + 1), capped by
// maxNtraj.
//
// Accepted tolerance shapes (validated by New):
//   - one Tolerance with Rtol 0 — a single absolute tolerance, broadcast;
//   - one Tolerance — a single (atol, rtol) pair, broadcast;
//   - one Tolerance per observable, in key order.
//
// The estimate is a jackknife-style plug-in heuristic, not a confidence
// bound: it is recomputed every trajectory and may oscillate before
// converging, so the remaining count is advisory and non-monotonic.
func WithTargetTolerance(maxNtraj int, tols ...Tolerance) Option {
	return func(o *Options) {
		o.policy = policyTolerance
		o.policySet++
		o.targetN = maxNtraj
		o.rawTols = append([]Tolerance(nil), tols...)
	}
}

// gatherOptions applies user setters on top of the documented defaults.
// Validation is New's job; this helper only resolves values.
func gatherOptions(user ...Option) Options {
	o := Options{
		keepRuns:    DefaultKeepRuns,
		storeStates: triUnset,
		storeFinal:  DefaultStoreFinalState,
		policy:      policyUnbounded,
	}
	for _, set := range user {
		set(&o)
	}

	return o
}
