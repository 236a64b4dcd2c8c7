// Package ensemble - stopping-criterion evaluators.
//
// Three mutually exclusive policies, selected at construction:
//   - unbounded:        remaining is always +Inf; an external cap or abort
//     is required to finish.
//   - fixed count:      remaining = N − n; exactly 0 tags NtrajReached.
//   - target tolerance: a jackknife-style plug-in estimate of the total
//     trajectories needed for every per-observable, per-time standard
//     error to fit inside target = atol + rtol*|avg|.
//
// The tolerance estimator deliberately preserves the historical formula
//   estimate = min(ceil(max_{k,t}(var[k,t]/target[k,t]²) + 1), N)
// with the biased plug-in variance sumSq/n − avg². It has no rigorous
// confidence-interval derivation; downstream callers depend on its
// convergence rate, so it must not be "fixed". The remaining count it
// yields is advisory and may oscillate between adds.

package ensemble

import "math"

// remaining evaluates the configured policy after a successful add and
// updates the stop reason when the policy completes.
func (a *Aggregator) remaining() float64 {
	switch a.cfg.policy {
	case policyFixed:
		return a.fixedRemaining()
	case policyTolerance:
		return a.toleranceRemaining()
	default:
		return math.Inf(1)
	}
}

// fixedRemaining reports N − n and tags NtrajReached on exact completion.
func (a *Aggregator) fixedRemaining() float64 {
	left := a.cfg.targetN - a.n
	if left == 0 {
		a.reason = NtrajReached
	}

	return float64(left)
}

// toleranceRemaining computes the plug-in estimate. Undefined with a single
// sample, so it reports +Inf until n > 1.
func (a *Aggregator) toleranceRemaining() float64 {
	if a.n <= 1 {
		return math.Inf(1)
	}

	invN := 1.0 / float64(a.n)
	worst := 0.0
	for k := range a.keys {
		tol := a.cfg.tols[k]
		for t := range a.times {
			avg := a.sum[k][t] * invN
			avg2 := a.sumSq[k][t] * invN
			target := tol.Atol + tol.Rtol*math.Abs(avg)
			ratio := (avg2 - avg*avg) / (target * target)
			if ratio > worst { // NaN (0/0) compares false and is skipped
				worst = ratio
			}
		}
	}

	estimate := math.Ceil(worst + 1)
	if estimate > float64(a.cfg.targetN) {
		estimate = float64(a.cfg.targetN)
	}
	a.estimated = estimate

	left := estimate - float64(a.n)
	if left <= 0 {
		a.reason = TargetToleranceReached
	}

	return left
}
