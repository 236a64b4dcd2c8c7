// Package ensemble - merge engine: combining two independently accumulated
// aggregations into one with statistically correct combined estimates.
//
// Merge is the reduction step of the intended concurrency pattern: private
// aggregator per worker, no shared mutable state, then a reduce-tree of
// merges. Numeric sums are associative, so merging is associative and
// commutative up to seed/raw-run ordering and floating-point rounding.

package ensemble

import (
	"fmt"

	"github.com/katalvlaran/trajstat/qstate"
	"github.com/katalvlaran/trajstat/trajectory"
)

// Merge combines a and b into a fresh aggregation: trajectory counts and
// running sums add, seeds (and retained runs, when both sides retained)
// concatenate a-then-b. A state accumulator survives only when present on
// both sides — absence in either operand propagates as absence, so data is
// never silently fabricated. The result carries no stopping policy and is
// tagged Merged.
//
// Neither input is modified, on success or failure.
//
// Errors:
//   - ErrNilAggregation when either operand is nil.
//   - ErrIncompatible when observable sets or time grids differ.
func Merge(a, b *Aggregator) (*Aggregator, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("ensemble: Merge: %w", ErrNilAggregation)
	}
	if err := sameKeys(a, b); err != nil {
		return nil, err
	}

	keep := a.cfg.keepRuns && b.cfg.keepRuns

	// An uninitialized side contributes nothing; the result is a copy of
	// the other side (possibly itself empty), retagged as merged.
	if !a.active || !b.active {
		src := a
		if !a.active {
			src = b
		}

		return src.cloneMerged(keep), nil
	}

	if len(a.times) != len(b.times) {
		return nil, fmt.Errorf("ensemble: Merge: time grids differ in length: %w", ErrIncompatible)
	}
	for i := range a.times {
		if a.times[i] != b.times[i] {
			return nil, fmt.Errorf("ensemble: Merge: time grids diverge at index %d: %w", i, ErrIncompatible)
		}
	}

	out := &Aggregator{
		keys: append([]string(nil), a.keys...),
		cfg: Options{
			keepRuns:    keep,
			storeStates: triOff,
			policy:      policyUnbounded,
		},
		active: true,
		times:  append([]float64(nil), a.times...),
		n:      a.n + b.n,
		reason: Merged,
	}

	out.sum = addSeries(a.sum, b.sum)
	out.sumSq = addSeries(a.sumSq, b.sumSq)

	if a.sumStates != nil && b.sumStates != nil {
		out.cfg.storeStates = triOn
		out.sumStates = make([]*qstate.Operator, len(a.sumStates))
		for i := range a.sumStates {
			out.sumStates[i] = mustAdd(a.sumStates[i], b.sumStates[i])
		}
	}
	if a.sumFinal != nil && b.sumFinal != nil {
		out.cfg.storeFinal = true
		out.sumFinal = mustAdd(a.sumFinal, b.sumFinal)
	}

	out.seeds = make([]trajectory.Seed, 0, len(a.seeds)+len(b.seeds))
	out.seeds = append(append(out.seeds, a.seeds...), b.seeds...)
	if keep {
		out.runs = make([]*trajectory.Trajectory, 0, len(a.runs)+len(b.runs))
		out.runs = append(append(out.runs, a.runs...), b.runs...)
	}

	out.installBuiltins()

	return out, nil
}

// Merge combines the receiver with other; see the package-level Merge.
func (a *Aggregator) Merge(other *Aggregator) (*Aggregator, error) {
	return Merge(a, other)
}

// sameKeys verifies that two aggregations share one observable set, in
// order.
func sameKeys(a, b *Aggregator) error {
	if len(a.keys) != len(b.keys) {
		return fmt.Errorf("ensemble: Merge: observable sets differ in size: %w", ErrIncompatible)
	}
	for i := range a.keys {
		if a.keys[i] != b.keys[i] {
			return fmt.Errorf("ensemble: Merge: observable %d is %q vs %q: %w",
				i, a.keys[i], b.keys[i], ErrIncompatible)
		}
	}

	return nil
}

// cloneMerged deep-copies the aggregation, drops the stopping policy,
// applies the combined retention flag and retags the result Merged.
func (a *Aggregator) cloneMerged(keep bool) *Aggregator {
	out := &Aggregator{
		keys: append([]string(nil), a.keys...),
		cfg: Options{
			keepRuns:    keep,
			storeStates: a.cfg.storeStates,
			storeFinal:  a.cfg.storeFinal,
			policy:      policyUnbounded,
		},
		active: a.active,
		times:  append([]float64(nil), a.times...),
		n:      a.n,
		seeds:  append([]trajectory.Seed(nil), a.seeds...),
		reason: Merged,
	}
	if a.sum != nil {
		out.sum = addSeries(a.sum, nil)
		out.sumSq = addSeries(a.sumSq, nil)
	}
	if a.sumStates != nil {
		out.sumStates = make([]*qstate.Operator, len(a.sumStates))
		for i, acc := range a.sumStates {
			out.sumStates[i] = acc.Clone()
		}
	}
	if a.sumFinal != nil {
		out.sumFinal = a.sumFinal.Clone()
	}
	if keep {
		out.runs = append([]*trajectory.Trajectory(nil), a.runs...)
	}
	out.installBuiltins()

	return out
}

// addSeries returns the elementwise sum of two [observable][time] series
// sets; b may be nil, in which case the result is a deep copy of a.
func addSeries(a, b [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for k := range a {
		out[k] = append([]float64(nil), a[k]...)
		if b != nil {
			for t := range b[k] {
				out[k][t] += b[k][t]
			}
		}
	}

	return out
}

// mustAdd sums two operators validated to share a dimension.
func mustAdd(x, y *qstate.Operator) *qstate.Operator {
	sum, err := qstate.Add(x, y)
	if err != nil {
		panic(err) // unreachable: merge checked grid and shape compatibility
	}

	return sum
}
