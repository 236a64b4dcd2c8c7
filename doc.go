// Package trajstat turns independent stochastic simulation runs into
// ensemble statistics — streamed, one trajectory at a time, without ever
// re-reading what came before.
//
// 🚀 What is trajstat?
//
//	A pure-Go library for Monte-Carlo-style solvers that brings together:
//		• Running aggregation: online mean / variance of every recorded observable
//		• State averaging: density-matrix accumulators for pure & mixed states
//		• Stopping rules: fixed count, unbounded, or adaptive target tolerance
//		• Merge engine: combine independently accumulated partials (reduce-tree)
//		• Specializations: collapse/jump statistics & martingale trace tracking
//
// ✨ Why choose trajstat?
//
//   - Single pass – every trajectory is consumed exactly once, O(L·K) per add
//   - Order independent – feed trajectories in any order, merge partials freely
//   - Composable – specialized reductions attach as pipeline processors
//   - Pure Go – no cgo, no hidden deps
//
// Under the hood, everything is organized under three subpackages:
//
//	ensemble/   — running aggregator, stopping criteria, merge engine
//	qstate/     — minimal state vector-space (kets, density operators)
//	trajectory/ — trajectory sample contract + single-run recorder
//
// Typical flow:
//
//	solver run ──▶ trajectory.Recorder ──▶ ensemble.Aggregator.Add ──▶ stop?
//	                                            │
//	     worker partials ───────────────▶ ensemble.Merge ──▶ final result
//
// Dive into the per-package doc.go files and examples/ for full scenarios.
//
//	go get github.com/katalvlaran/trajstat
package trajstat
