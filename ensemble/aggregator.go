// Package ensemble - running aggregator: construction, pipeline dispatch
// and the streaming add path.
//
// Purpose:
//   - New fixes the observable set and stopping policy, validates the
//     configuration, and registers the built-in reduction processors.
//   - Add validates an incoming trajectory completely before mutating
//     anything (a failed add leaves the aggregation in its pre-add state),
//     then commits: lazy first-sample shape init, counter increment, and
//     one pass over the processor pipeline.
//   - Add is O(L·K) per trajectory plus O(L·d²) when states are tracked;
//     it never re-reads previously added trajectories.

package ensemble

import (
	"fmt"
	"math"

	"github.com/katalvlaran/trajstat/qstate"
	"github.com/katalvlaran/trajstat/trajectory"
)

// New creates an empty aggregation for the given observable keys.
// The observable set and the stopping policy are fixed for the lifetime of
// the aggregation; trajectories are then consumed one at a time via Add.
//
// Defaults: states are accumulated exactly when keys is empty (an
// aggregation with no observables would otherwise record nothing);
// override with WithStoreStates / WithoutStoreStates.
//
// Errors:
//   - ErrConfiguration on duplicate keys, conflicting or invalid stopping
//     policies, or tolerance shapes that match neither "one pair" nor
//     "one pair per observable".
func New(keys []string, opts ...Option) (*Aggregator, error) {
	cfg := gatherOptions(opts...)

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("ensemble: New: duplicate observable key %q: %w", k, ErrConfiguration)
		}
		seen[k] = struct{}{}
	}

	if err := resolvePolicy(&cfg, len(keys)); err != nil {
		return nil, err
	}

	// Resolve the store-states default against the observable set, so the
	// decision is stable from here on (merge rebuilds rely on it).
	if cfg.storeStates == triUnset {
		if len(keys) == 0 {
			cfg.storeStates = triOn
		} else {
			cfg.storeStates = triOff
		}
	}

	a := &Aggregator{
		keys:   append([]string(nil), keys...),
		cfg:    cfg,
		reason: Unknown,
	}
	if cfg.policy != policyUnbounded {
		// A finite policy that never completes reports Timeout.
		a.reason = Timeout
	}

	a.installBuiltins()

	return a, nil
}

// installBuiltins registers the built-in reductions in the canonical order.
// Specializations append their own processors after these. Called by New
// and by the merge engine when it rebuilds a pipeline for a merged result.
func (a *Aggregator) installBuiltins() {
	if a.cfg.keepRuns {
		a.procs = append(a.procs, a.storeRun)
	}
	if a.cfg.storeStates == triOn {
		a.procs = append(a.procs, a.reduceStates)
	}
	if a.cfg.storeStates == triOn || a.cfg.storeFinal {
		a.procs = append(a.procs, a.reduceFinal)
	}
	if len(a.keys) > 0 {
		a.procs = append(a.procs, a.reduceExpect)
	}
}

// resolvePolicy validates the stopping policy and broadcasts tolerance
// pairs to one per observable.
func resolvePolicy(cfg *Options, numKeys int) error {
	if cfg.policySet > 1 {
		return fmt.Errorf("ensemble: New: multiple stopping policies configured: %w", ErrConfiguration)
	}

	switch cfg.policy {
	case policyFixed:
		if cfg.targetN < 1 {
			return fmt.Errorf("ensemble: New: fixed count %d must be >= 1: %w", cfg.targetN, ErrConfiguration)
		}
	case policyTolerance:
		if numKeys == 0 {
			return fmt.Errorf("ensemble: New: target tolerance needs at least one observable: %w", ErrConfiguration)
		}
		if cfg.targetN < 1 {
			return fmt.Errorf("ensemble: New: tolerance cap %d must be >= 1: %w", cfg.targetN, ErrConfiguration)
		}
		for _, tol := range cfg.rawTols {
			if !finiteNonNegative(tol.Atol) || !finiteNonNegative(tol.Rtol) {
				return fmt.Errorf("ensemble: New: tolerances must be finite and >= 0: %w", ErrConfiguration)
			}
		}
		switch len(cfg.rawTols) {
		case 1:
			cfg.tols = make([]Tolerance, numKeys)
			for i := range cfg.tols {
				cfg.tols[i] = cfg.rawTols[0]
			}
		case numKeys:
			cfg.tols = append([]Tolerance(nil), cfg.rawTols...)
		default:
			return fmt.Errorf("ensemble: New: got %d tolerance pairs, want 1 or %d: %w",
				len(cfg.rawTols), numKeys, ErrConfiguration)
		}
	}

	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}

// Register appends a reduction callback to the pipeline. Callbacks execute
// in registration order for every subsequent trajectory. Registration is a
// construction/specialization-phase operation: once the first trajectory
// has been consumed the pipeline is frozen.
//
// Errors:
//   - ErrConfiguration for a nil processor or registration after the first
//     Add.
func (a *Aggregator) Register(p Processor) error {
	if p == nil {
		return fmt.Errorf("ensemble: Register: nil processor: %w", ErrConfiguration)
	}
	if a.active {
		return fmt.Errorf("ensemble: Register: pipeline is frozen after the first add: %w", ErrConfiguration)
	}
	a.procs = append(a.procs, p)

	return nil
}

// addCheck installs a pre-commit validator used by specializations; like
// processors, checks are fixed before ingestion starts.
func (a *Aggregator) addCheck(c func(tr *trajectory.Trajectory) error) {
	a.checks = append(a.checks, c)
}

// Add consumes one trajectory and returns the advisory number of further
// trajectories the stopping policy estimates are needed (+Inf under the
// unbounded policy, and under target tolerance until two samples exist).
//
// The trajectory is validated in full before any accumulator is touched:
// on error the aggregation is exactly as it was before the call.
//
// Errors:
//   - ErrNilTrajectory for a nil sample.
//   - ErrShapeMismatch when the sample disagrees with the shape locked in
//     by the first trajectory (or, for the first sample, is internally
//     inconsistent).
func (a *Aggregator) Add(tr *trajectory.Trajectory) (float64, error) {
	if tr == nil {
		return 0, fmt.Errorf("ensemble: Add: %w", ErrNilTrajectory)
	}

	// Validate-before-mutate: shape first, specialization checks second.
	var err error
	if a.active {
		err = a.checkShape(tr)
	} else {
		err = a.checkFirst(tr)
	}
	if err != nil {
		return 0, err
	}
	for _, check := range a.checks {
		if err = check(tr); err != nil {
			return 0, err
		}
	}

	// Commit phase: nothing below may fail.
	if !a.active {
		a.initFirst(tr)
	}
	a.n++
	a.seeds = append(a.seeds, tr.Seed)
	for _, p := range a.procs {
		p(tr)
	}

	return a.remaining(), nil
}

// checkFirst validates the internal consistency of the very first sample,
// which will define every accumulator shape.
func (a *Aggregator) checkFirst(tr *trajectory.Trajectory) error {
	grid := len(tr.Times)
	if grid == 0 {
		return fmt.Errorf("ensemble: Add: empty time grid: %w", ErrShapeMismatch)
	}
	if len(tr.Expect) != len(a.keys) {
		return fmt.Errorf("ensemble: Add: trajectory has %d observable series, want %d: %w",
			len(tr.Expect), len(a.keys), ErrShapeMismatch)
	}
	for i, series := range tr.Expect {
		if len(series) != grid {
			return fmt.Errorf("ensemble: Add: series %q has %d points, want %d: %w",
				a.keys[i], len(series), grid, ErrShapeMismatch)
		}
	}
	if a.cfg.storeStates == triOn && tr.States != nil {
		if len(tr.States) != grid {
			return fmt.Errorf("ensemble: Add: %d state snapshots, want %d: %w",
				len(tr.States), grid, ErrShapeMismatch)
		}
		for i, s := range tr.States {
			if s == nil {
				return fmt.Errorf("ensemble: Add: nil state snapshot at index %d: %w", i, ErrShapeMismatch)
			}
		}
	}

	return nil
}

// checkShape validates a subsequent sample against the established shape.
func (a *Aggregator) checkShape(tr *trajectory.Trajectory) error {
	if len(tr.Times) != len(a.times) {
		return fmt.Errorf("ensemble: Add: time grid length %d, want %d: %w",
			len(tr.Times), len(a.times), ErrShapeMismatch)
	}
	for i, t := range tr.Times {
		if t != a.times[i] {
			return fmt.Errorf("ensemble: Add: time grid diverges at index %d: %w", i, ErrShapeMismatch)
		}
	}
	if len(tr.Expect) != len(a.keys) {
		return fmt.Errorf("ensemble: Add: trajectory has %d observable series, want %d: %w",
			len(tr.Expect), len(a.keys), ErrShapeMismatch)
	}
	for i, series := range tr.Expect {
		if len(series) != len(a.times) {
			return fmt.Errorf("ensemble: Add: series %q has %d points, want %d: %w",
				a.keys[i], len(series), len(a.times), ErrShapeMismatch)
		}
	}
	if a.sumStates != nil {
		if len(tr.States) != len(a.times) {
			return fmt.Errorf("ensemble: Add: %d state snapshots, want %d: %w",
				len(tr.States), len(a.times), ErrShapeMismatch)
		}
		for i, s := range tr.States {
			if s == nil || s.Dim() != a.sumStates[i].Dim() {
				return fmt.Errorf("ensemble: Add: state snapshot %d has wrong shape: %w", i, ErrShapeMismatch)
			}
		}
	}
	if a.sumFinal != nil {
		if tr.FinalState == nil || tr.FinalState.Dim() != a.sumFinal.Dim() {
			return fmt.Errorf("ensemble: Add: final state missing or wrong shape: %w", ErrShapeMismatch)
		}
	}

	return nil
}

// initFirst locks in every accumulator shape from the first sample. It runs
// after checkFirst, so nothing here can fail; the lifecycle transitions
// uninitialized → active exactly once.
func (a *Aggregator) initFirst(tr *trajectory.Trajectory) {
	grid := len(tr.Times)
	a.times = append([]float64(nil), tr.Times...)

	a.sum = make([][]float64, len(a.keys))
	a.sumSq = make([][]float64, len(a.keys))
	for i := range a.keys {
		a.sum[i] = make([]float64, grid)
		a.sumSq[i] = make([]float64, grid)
	}

	// State accumulators exist only when tracking was requested AND the
	// first sample actually carries the snapshots: absence in the first
	// sample establishes absence for the whole aggregation.
	if a.cfg.storeStates == triOn && tr.States != nil {
		a.sumStates = make([]*qstate.Operator, grid)
		for i, s := range tr.States {
			a.sumStates[i] = mustZeroLike(s)
		}
	}
	if (a.cfg.storeStates == triOn || a.cfg.storeFinal) && tr.FinalState != nil {
		a.sumFinal = mustZeroLike(tr.FinalState)
	}

	a.active = true
}

// mustZeroLike allocates a zero accumulator for a state already validated
// non-nil. An error here is a programmer error, hence the panic.
func mustZeroLike(s qstate.State) *qstate.Operator {
	z, err := qstate.ZeroLike(s)
	if err != nil {
		panic(err)
	}

	return z
}

// ---------------------------------------------------------------------------
// Built-in pipeline processors. All of them run post-validation and are
// therefore infallible; dimension errors below would be programmer errors.
// ---------------------------------------------------------------------------

// storeRun retains a private copy of the trajectory (opt-in, memory-heavy).
func (a *Aggregator) storeRun(tr *trajectory.Trajectory) {
	a.runs = append(a.runs, tr.Clone())
}

// reduceExpect folds the sample's observable series into the running
// first and second moments.
func (a *Aggregator) reduceExpect(tr *trajectory.Trajectory) {
	for k, series := range tr.Expect {
		sum, sumSq := a.sum[k], a.sumSq[k]
		for t, v := range series {
			sum[t] += v
			sumSq[t] += v * v
		}
	}
}

// reduceStates folds the density-equivalent representation of every
// snapshot into the per-time state sums.
func (a *Aggregator) reduceStates(tr *trajectory.Trajectory) {
	if a.sumStates == nil {
		return
	}
	for i, s := range tr.States {
		if err := a.sumStates[i].AddInPlace(s.ToDensity()); err != nil {
			panic(err) // unreachable: dims validated by checkShape/checkFirst
		}
	}
}

// reduceFinal folds the final snapshot into the final-state sum.
func (a *Aggregator) reduceFinal(tr *trajectory.Trajectory) {
	if a.sumFinal == nil || tr.FinalState == nil {
		return
	}
	if err := a.sumFinal.AddInPlace(tr.FinalState.ToDensity()); err != nil {
		panic(err) // unreachable: dims validated by checkShape/checkFirst
	}
}
