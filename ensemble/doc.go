// Package ensemble aggregates Monte-Carlo trajectory ensembles in a single
// streaming pass: running means and deviations of observables, averaged
// states, adaptive stopping, and lock-free parallel reduction via Merge.
//
// 🚀 What does it solve?
//
//	A stochastic solver produces one trajectory per random seed; the
//	physical answer is an ensemble average over many of them. Keeping every
//	run in memory does not scale, so the aggregation here is streaming:
//	each trajectory is folded into O(K·L) running moments and discarded
//	(retention is opt-in). It's the reduction half of:
//	  • quantum jump (Monte Carlo) unravelings — McAggregator
//	  • non-Markovian martingale unravelings  — NmAggregator
//	  • any fixed-grid stochastic sampling    — plain Aggregator
//
// ✨ Key features:
//   - one-pass mean and population standard deviation per observable
//   - three stopping policies: unbounded, fixed count, target tolerance
//     (adaptive trajectory-count estimation from the running variance)
//   - density-equivalent state averaging and steady-state extraction
//   - collapse-event recording with per-channel photocurrent estimates
//   - martingale trace statistics for non-Markovian certification
//   - Merge: combine independently filled aggregations with statistically
//     correct totals (private aggregator per worker, reduce-tree, no locks)
//
// ⚙️ Usage:
//
//	import "github.com/katalvlaran/trajstat/ensemble"
//
//	agg, err := ensemble.New(
//	  []string{"excitation"},
//	  ensemble.WithTargetTolerance(1000, ensemble.Tolerance{Atol: 0.01}),
//	)
//	// per trajectory:
//	left, err := agg.Add(tr) // left <= 0 once the tolerance is met
//	// results:
//	avg := agg.AverageExpect()
//	std := agg.StdExpect()
//
// Add validates every trajectory against the shape locked in by the first
// one and mutates nothing on error. An Aggregator has a single logical
// owner; partition work across instances and combine with Merge.
//
// Performance:
//
//   - Add:   O(K·L) per trajectory (+O(L·d²) with state tracking)
//   - Views: computed on demand, never cached
//
// See example_test.go for complete scenarios.
package ensemble
