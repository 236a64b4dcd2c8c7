package trajectory

import "github.com/katalvlaran/trajstat/qstate"

// Seed is an opaque run-identifying token minted by the trajectory
// generator. The aggregation core stores and concatenates seeds verbatim;
// it never inspects them.
type Seed string

// CollapseEvent records one discrete jump: the time it happened and the
// index of the collapse channel that fired.
type CollapseEvent struct {
	Time    float64 // event time, inside the run's time grid span
	Channel int     // 0-based collapse channel index
}

// Trajectory is one full stochastic simulation run.
//
// Shape contract: all trajectories fed into one aggregation share identical
// Times and the same observable set/order in Expect. Violations are usage
// errors surfaced by the aggregator, not recoverable conditions.
type Trajectory struct {
	// Times is the shared time grid of length L.
	Times []float64

	// States holds one snapshot per grid point (length L) when state
	// recording was requested; nil otherwise.
	States []qstate.State

	// FinalState is the last snapshot when final-state recording was
	// requested; nil otherwise.
	FinalState qstate.State

	// Expect holds one length-L value series per registered observable,
	// in the aggregation's observable order.
	Expect [][]float64

	// Seed identifies the run.
	Seed Seed

	// Collapses lists discrete jump events for collapse-capable solvers;
	// nil (or empty) for runs without jumps.
	Collapses []CollapseEvent

	// Trace is the martingale correction-factor series (length L) for
	// non-Markovian solvers; nil otherwise.
	Trace []float64
}

// Len returns the number of grid points L. Complexity: O(1).
func (t *Trajectory) Len() int { return len(t.Times) }

// Clone returns a copy with independent slice headers and buffers for every
// series. State snapshots are shared, not deep-copied: states are read-only
// by contract, so sharing them is safe and keeps Clone O(L·K) instead of
// O(L·d²).
func (t *Trajectory) Clone() *Trajectory {
	out := &Trajectory{
		Times:      append([]float64(nil), t.Times...),
		FinalState: t.FinalState,
		Seed:       t.Seed,
	}
	if t.States != nil {
		out.States = append([]qstate.State(nil), t.States...)
	}
	if t.Expect != nil {
		out.Expect = make([][]float64, len(t.Expect))
		for i, series := range t.Expect {
			out.Expect[i] = append([]float64(nil), series...)
		}
	}
	if t.Collapses != nil {
		out.Collapses = append([]CollapseEvent(nil), t.Collapses...)
	}
	if t.Trace != nil {
		out.Trace = append([]float64(nil), t.Trace...)
	}

	return out
}
