// Package ensemble - collapse specialization: an aggregation that also
// records quantum-jump events and derives photocurrent estimates from them.
//
// The specialization is a thin layer over Aggregator: one extra pre-commit
// check (channel indices must fit the declared channel count) and one extra
// pipeline processor (record the sample's collapse events). Everything else
// is inherited, including the stopping policies and the merge semantics.

package ensemble

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/trajstat/trajectory"
)

// McAggregator aggregates trajectories produced by a jump (Monte Carlo)
// unraveling. On top of the base statistics it keeps, per consumed run, the
// full list of collapse events, and derives per-channel photocurrents by
// binning event times onto the shared grid.
type McAggregator struct {
	*Aggregator

	channels  int
	collapses [][]trajectory.CollapseEvent // one entry per consumed run
}

// NewMc creates an empty collapse-recording aggregation with the given
// observable keys and number of collapse channels.
//
// Errors:
//   - ErrConfiguration when channels < 1 or on any base configuration
//     error (see New).
func NewMc(keys []string, channels int, opts ...Option) (*McAggregator, error) {
	if channels < 1 {
		return nil, fmt.Errorf("ensemble: NewMc: channel count %d must be >= 1: %w", channels, ErrConfiguration)
	}
	base, err := New(keys, opts...)
	if err != nil {
		return nil, err
	}

	m := &McAggregator{Aggregator: base, channels: channels}
	m.addCheck(m.checkChannels)
	m.procs = append(m.procs, m.recordCollapses)

	return m, nil
}

// checkChannels rejects a sample carrying an event on a channel outside
// [0, channels). Runs pre-commit, so a bad sample changes nothing.
func (m *McAggregator) checkChannels(tr *trajectory.Trajectory) error {
	for i, ev := range tr.Collapses {
		if ev.Channel < 0 || ev.Channel >= m.channels {
			return fmt.Errorf("ensemble: Add: collapse %d on channel %d, have %d channels: %w",
				i, ev.Channel, m.channels, ErrShapeMismatch)
		}
	}

	return nil
}

// recordCollapses retains a private copy of the sample's event list. A run
// without jumps still gets an (empty) entry so that per-run views stay
// aligned with Seeds.
func (m *McAggregator) recordCollapses(tr *trajectory.Trajectory) {
	m.collapses = append(m.collapses, append([]trajectory.CollapseEvent(nil), tr.Collapses...))
}

// NumChannels returns the declared collapse channel count.
func (m *McAggregator) NumChannels() int { return m.channels }

// Collapses returns every run's recorded events, in consumption order. The
// outer slice is a copy; event lists are owned by the aggregation.
func (m *McAggregator) Collapses() [][]trajectory.CollapseEvent {
	return append([][]trajectory.CollapseEvent(nil), m.collapses...)
}

// ColTimes returns, per consumed run, the times of its collapse events.
func (m *McAggregator) ColTimes() [][]float64 {
	out := make([][]float64, len(m.collapses))
	for r, events := range m.collapses {
		out[r] = make([]float64, len(events))
		for i, ev := range events {
			out[r][i] = ev.Time
		}
	}

	return out
}

// ColWhich returns, per consumed run, the channel of each collapse event.
func (m *McAggregator) ColWhich() [][]int {
	out := make([][]int, len(m.collapses))
	for r, events := range m.collapses {
		out[r] = make([]int, len(events))
		for i, ev := range events {
			out[r][i] = ev.Channel
		}
	}

	return out
}

// Photocurrent returns the ensemble-averaged jump rate per channel, indexed
// [channel][bin] with L−1 bins: events are counted into grid intervals
// [t_j, t_{j+1}) (the last interval right-inclusive), then each count is
// divided by the interval width and the number of consumed runs. Nil before
// the first add.
//
// Complexity: O(total events · log L + C·L).
func (m *McAggregator) Photocurrent() [][]float64 {
	if m.n == 0 || len(m.times) < 2 {
		return nil
	}

	counts := make([][]float64, m.channels)
	for c := range counts {
		counts[c] = make([]float64, len(m.times)-1)
	}
	for _, events := range m.collapses {
		binInto(counts, m.times, events)
	}
	normalizeRate(counts, m.times, float64(m.n))

	return counts
}

// RunsPhotocurrent returns the per-run jump rate, indexed
// [run][channel][bin]. Nil before the first add.
func (m *McAggregator) RunsPhotocurrent() [][][]float64 {
	if m.n == 0 || len(m.times) < 2 {
		return nil
	}

	out := make([][][]float64, len(m.collapses))
	for r, events := range m.collapses {
		counts := make([][]float64, m.channels)
		for c := range counts {
			counts[c] = make([]float64, len(m.times)-1)
		}
		binInto(counts, m.times, events)
		normalizeRate(counts, m.times, 1)
		out[r] = counts
	}

	return out
}

// Merge combines two collapse aggregations; see the package-level Merge for
// the base semantics. Event lists concatenate m-then-other.
//
// Errors:
//   - ErrNilAggregation when other is nil.
//   - ErrIncompatible when the channel counts differ, plus any base
//     incompatibility.
func (m *McAggregator) Merge(other *McAggregator) (*McAggregator, error) {
	if other == nil {
		return nil, fmt.Errorf("ensemble: Merge: %w", ErrNilAggregation)
	}
	if m.channels != other.channels {
		return nil, fmt.Errorf("ensemble: Merge: %d vs %d collapse channels: %w",
			m.channels, other.channels, ErrIncompatible)
	}
	base, err := Merge(m.Aggregator, other.Aggregator)
	if err != nil {
		return nil, err
	}

	out := &McAggregator{Aggregator: base, channels: m.channels}
	out.collapses = make([][]trajectory.CollapseEvent, 0, len(m.collapses)+len(other.collapses))
	out.collapses = append(append(out.collapses, m.collapses...), other.collapses...)
	out.addCheck(out.checkChannels)
	out.procs = append(out.procs, out.recordCollapses)

	return out, nil
}

// binInto counts events into per-channel grid intervals; events outside the
// grid are dropped.
func binInto(counts [][]float64, times []float64, events []trajectory.CollapseEvent) {
	for _, ev := range events {
		if bin := binIndex(times, ev.Time); bin >= 0 {
			counts[ev.Channel][bin]++
		}
	}
}

// normalizeRate turns interval counts into rates: count / width / runs.
func normalizeRate(counts [][]float64, times []float64, runs float64) {
	for _, row := range counts {
		for j := range row {
			row[j] /= (times[j+1] - times[j]) * runs
		}
	}
}

// binIndex maps a time onto its grid interval: bin j covers
// [times[j], times[j+1]), and the final interval also includes its right
// edge. Returns -1 for times outside the grid. The grid is strictly
// increasing, so binary search applies.
func binIndex(times []float64, t float64) int {
	last := len(times) - 1
	if last < 1 || t < times[0] || t > times[last] {
		return -1
	}
	if t == times[last] {
		return last - 1
	}
	i := sort.SearchFloat64s(times, t)
	if i <= last && times[i] == t {
		return i
	}

	return i - 1
}
