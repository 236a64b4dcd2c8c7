// Package ensemble - read-only projections over the accumulator state.
//
// Every view below is computed on demand from the running sums; nothing is
// stored redundantly and no view mutates the aggregation. Views called
// before the first add (or for untracked data) return nil.

package ensemble

import (
	"math"

	"github.com/katalvlaran/trajstat/qstate"
	"github.com/katalvlaran/trajstat/trajectory"
)

// Keys returns the observable keys in aggregation order. Complexity: O(K).
func (a *Aggregator) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Times returns a copy of the shared time grid (nil before the first add).
func (a *Aggregator) Times() []float64 {
	return append([]float64(nil), a.times...)
}

// NumTrajectories returns how many trajectories were consumed.
func (a *Aggregator) NumTrajectories() int { return a.n }

// EndCondition returns the current stop tag.
func (a *Aggregator) EndCondition() StopReason { return a.reason }

// Seeds returns the run tokens in consumption order.
func (a *Aggregator) Seeds() []trajectory.Seed {
	return append([]trajectory.Seed(nil), a.seeds...)
}

// Trajectories returns the retained raw runs, or nil when retention was not
// requested. The returned slice is a copy; the runs themselves are owned by
// the aggregation and must be treated as read-only.
func (a *Aggregator) Trajectories() []*trajectory.Trajectory {
	if a.runs == nil {
		return nil
	}

	return append([]*trajectory.Trajectory(nil), a.runs...)
}

// Stats returns the read-only aggregation summary.
func (a *Aggregator) Stats() Stats {
	return Stats{
		NumTrajectories: a.n,
		EndCondition:    a.reason,
		Keys:            a.Keys(),
		GridLen:         len(a.times),
	}
}

// AverageExpect returns the ensemble mean of every observable, indexed
// [observable][time]. Nil before the first add. Complexity: O(K·L).
func (a *Aggregator) AverageExpect() [][]float64 {
	if a.n == 0 {
		return nil
	}
	invN := 1.0 / float64(a.n)
	out := make([][]float64, len(a.keys))
	for k := range a.keys {
		out[k] = make([]float64, len(a.times))
		for t := range a.times {
			out[k][t] = a.sum[k][t] * invN
		}
	}

	return out
}

// StdExpect returns the population standard deviation of every observable,
// indexed [observable][time]. The raw variance sumSq/n − avg² can come out
// a hair negative when the true variance is ~0; the absolute value guards
// the square root, so the result is always >= 0. Complexity: O(K·L).
func (a *Aggregator) StdExpect() [][]float64 {
	if a.n == 0 {
		return nil
	}
	invN := 1.0 / float64(a.n)
	out := make([][]float64, len(a.keys))
	for k := range a.keys {
		out[k] = make([]float64, len(a.times))
		for t := range a.times {
			avg := a.sum[k][t] * invN
			avg2 := a.sumSq[k][t] * invN
			out[k][t] = math.Sqrt(math.Abs(avg2 - avg*avg))
		}
	}

	return out
}

// ExpectSeries returns the averaged series for one observable key, or nil
// for an unknown key or before the first add.
func (a *Aggregator) ExpectSeries(key string) []float64 {
	k := a.keyIndex(key)
	if k < 0 || a.n == 0 {
		return nil
	}
	invN := 1.0 / float64(a.n)
	out := make([]float64, len(a.times))
	for t := range a.times {
		out[t] = a.sum[k][t] * invN
	}

	return out
}

// StdSeries returns the standard-deviation series for one observable key,
// or nil for an unknown key or before the first add.
func (a *Aggregator) StdSeries(key string) []float64 {
	k := a.keyIndex(key)
	if k < 0 || a.n == 0 {
		return nil
	}
	invN := 1.0 / float64(a.n)
	out := make([]float64, len(a.times))
	for t := range a.times {
		avg := a.sum[k][t] * invN
		avg2 := a.sumSq[k][t] * invN
		out[t] = math.Sqrt(math.Abs(avg2 - avg*avg))
	}

	return out
}

// keyIndex resolves an observable key to its aggregation index, -1 when
// unknown. Observable sets are small; a linear scan beats a map here.
func (a *Aggregator) keyIndex(key string) int {
	for i, k := range a.keys {
		if k == key {
			return i
		}
	}

	return -1
}

// RunsExpect returns every retained run's observable series, indexed
// [observable][run][time]. Nil unless retention was requested.
func (a *Aggregator) RunsExpect() [][][]float64 {
	if a.runs == nil {
		return nil
	}
	out := make([][][]float64, len(a.keys))
	for k := range a.keys {
		out[k] = make([][]float64, len(a.runs))
		for r, run := range a.runs {
			out[k][r] = append([]float64(nil), run.Expect[k]...)
		}
	}

	return out
}

// AverageStates returns the ensemble-averaged density matrix at every grid
// point, or nil when states are not tracked. Complexity: O(L·d²).
func (a *Aggregator) AverageStates() []*qstate.Operator {
	if a.sumStates == nil || a.n == 0 {
		return nil
	}
	invN := complex(1.0/float64(a.n), 0)
	out := make([]*qstate.Operator, len(a.sumStates))
	for i, acc := range a.sumStates {
		out[i] = acc.Scale(invN)
	}

	return out
}

// AverageFinalState returns the ensemble-averaged final density matrix, or
// nil when final states are not tracked.
func (a *Aggregator) AverageFinalState() *qstate.Operator {
	if a.sumFinal == nil || a.n == 0 {
		return nil
	}

	return a.sumFinal.Scale(complex(1.0/float64(a.n), 0))
}

// SteadyState averages the averaged states over the last window grid
// points; in the right circumstances this converges to the steady state.
// window <= 0 (or larger than the grid) means "all points". Returns nil
// when states are not tracked.
//
// Complexity: O(w·d²).
func (a *Aggregator) SteadyState(window int) *qstate.Operator {
	if a.sumStates == nil || a.n == 0 {
		return nil
	}
	grid := len(a.sumStates)
	w := window
	if w <= 0 || w > grid {
		w = grid
	}

	total := mustZeroLike(a.sumStates[0])
	for _, acc := range a.sumStates[grid-w:] {
		if err := total.AddInPlace(acc); err != nil {
			panic(err) // unreachable: all accumulators share one dimension
		}
	}

	return total.Scale(complex(1.0/(float64(w)*float64(a.n)), 0))
}
