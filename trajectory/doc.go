// Package trajectory defines the immutable unit of work exchanged between a
// Monte-Carlo-style solver and the ensemble aggregation core: one full
// stochastic run as a time-indexed sequence of states and/or observable
// values, plus the single-run Recorder that produces it.
//
// 🚀 What is a Trajectory?
//
//	One solver run over a shared time grid:
//	  • Times     — the grid (identical across every run of one ensemble)
//	  • Expect    — one value series per registered observable
//	  • States    — optional per-step state snapshots
//	  • FinalState — optional last snapshot
//	  • Seed      — opaque run-identifying token
//	  • Collapses — optional discrete jump events (time, channel)
//	  • Trace     — optional martingale reweighting series
//
// A Trajectory is read-only input to the aggregation core: the core never
// mutates it and never retains it unless raw-run retention was explicitly
// requested.
//
// ⚙️ Recording a run:
//
//	rec, err := trajectory.NewRecorder([]trajectory.Observable{
//	    {Key: "n", F: number},
//	}, trajectory.WithRecorderFinalState())
//	for step := range steps {
//	    rec.Add(step.T, step.State) // capture observables (and states, if asked)
//	}
//	traj := rec.Finish(seed)
//
// The Recorder uses the same append-only processor-list idiom as the
// ensemble pipeline: every concern (observable capture, state capture,
// final-state capture) is one callback registered at construction, executed
// in registration order on each Add.
package trajectory
