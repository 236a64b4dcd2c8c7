// Package ensemble - martingale specialization for non-Markovian jump
// unravelings, where every trajectory carries an influence-martingale weight
// sampled on the shared grid. The weight's ensemble average certifies the
// simulation (it should stay near 1) and its spread measures sampling noise.

package ensemble

import (
	"fmt"
	"math"

	"github.com/katalvlaran/trajstat/trajectory"
)

// NmAggregator extends the collapse aggregation with running first and
// second moments of the per-trajectory martingale trace.
type NmAggregator struct {
	*McAggregator

	sumTrace   []float64
	sumSqTrace []float64
	runsTrace  [][]float64 // per-run traces; nil unless retention is on
}

// NewNm creates an empty martingale aggregation; parameters match NewMc.
// Every added trajectory must carry a trace with one weight per grid point.
func NewNm(keys []string, channels int, opts ...Option) (*NmAggregator, error) {
	mc, err := NewMc(keys, channels, opts...)
	if err != nil {
		return nil, err
	}

	nm := &NmAggregator{McAggregator: mc}
	nm.addCheck(nm.checkTrace)
	nm.procs = append(nm.procs, nm.reduceTrace)

	return nm, nil
}

// checkTrace rejects samples whose martingale trace does not cover the grid.
func (m *NmAggregator) checkTrace(tr *trajectory.Trajectory) error {
	if len(tr.Trace) != len(tr.Times) {
		return fmt.Errorf("ensemble: Add: martingale trace has %d points, want %d: %w",
			len(tr.Trace), len(tr.Times), ErrShapeMismatch)
	}

	return nil
}

// reduceTrace folds the sample's trace into the running moments. Allocation
// is lazy: the commit phase runs after the grid is locked in, so the length
// is known here.
func (m *NmAggregator) reduceTrace(tr *trajectory.Trajectory) {
	if m.sumTrace == nil {
		m.sumTrace = make([]float64, len(m.times))
		m.sumSqTrace = make([]float64, len(m.times))
	}
	for t, w := range tr.Trace {
		m.sumTrace[t] += w
		m.sumSqTrace[t] += w * w
	}
	if m.cfg.keepRuns {
		m.runsTrace = append(m.runsTrace, append([]float64(nil), tr.Trace...))
	}
}

// AverageTrace returns the ensemble-averaged martingale weight per grid
// point. Nil before the first add.
func (m *NmAggregator) AverageTrace() []float64 {
	if m.n == 0 {
		return nil
	}
	invN := 1.0 / float64(m.n)
	out := make([]float64, len(m.sumTrace))
	for t, s := range m.sumTrace {
		out[t] = s * invN
	}

	return out
}

// StdTrace returns the population standard deviation of the martingale
// weight per grid point. Nil before the first add.
func (m *NmAggregator) StdTrace() []float64 {
	if m.n == 0 {
		return nil
	}
	invN := 1.0 / float64(m.n)
	out := make([]float64, len(m.sumTrace))
	for t := range m.sumTrace {
		avg := m.sumTrace[t] * invN
		avg2 := m.sumSqTrace[t] * invN
		out[t] = math.Sqrt(math.Abs(avg2 - avg*avg))
	}

	return out
}

// RunsTrace returns every retained run's trace, in consumption order, or
// nil unless retention was requested.
func (m *NmAggregator) RunsTrace() [][]float64 {
	if m.runsTrace == nil {
		return nil
	}
	out := make([][]float64, len(m.runsTrace))
	for r, trace := range m.runsTrace {
		out[r] = append([]float64(nil), trace...)
	}

	return out
}

// Merge combines two martingale aggregations: base and collapse semantics
// are inherited, trace moments add elementwise, retained traces concatenate
// m-then-other when both sides retained.
func (m *NmAggregator) Merge(other *NmAggregator) (*NmAggregator, error) {
	if other == nil {
		return nil, fmt.Errorf("ensemble: Merge: %w", ErrNilAggregation)
	}
	mc, err := m.McAggregator.Merge(other.McAggregator)
	if err != nil {
		return nil, err
	}

	out := &NmAggregator{McAggregator: mc}
	if m.sumTrace != nil || other.sumTrace != nil {
		out.sumTrace = addVec(m.sumTrace, other.sumTrace)
		out.sumSqTrace = addVec(m.sumSqTrace, other.sumSqTrace)
	}
	if mc.cfg.keepRuns {
		out.runsTrace = make([][]float64, 0, len(m.runsTrace)+len(other.runsTrace))
		out.runsTrace = append(append(out.runsTrace, m.runsTrace...), other.runsTrace...)
	}
	out.addCheck(out.checkTrace)
	out.procs = append(out.procs, out.reduceTrace)

	return out, nil
}

// addVec sums two equal-length vectors; either may be nil (treated as
// zeros, the result taking the other's length).
func addVec(a, b []float64) []float64 {
	if a == nil {
		return append([]float64(nil), b...)
	}
	out := append([]float64(nil), a...)
	for t := range b {
		out[t] += b[t]
	}

	return out
}
