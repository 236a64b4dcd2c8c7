package ensemble_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/trajstat/ensemble"
)

// TestStopping_UnboundedNeverFinishes: without a policy the remaining
// estimate stays +Inf and the end condition stays Unknown.
func TestStopping_UnboundedNeverFinishes(t *testing.T) {
	agg, err := ensemble.New([]string{"x"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		left, addErr := agg.Add(traj(grid3(), []float64{1, 2, 3}))
		require.NoError(t, addErr)
		assert.True(t, math.IsInf(left, 1), "unbounded remaining must be +Inf")
	}
	assert.Equal(t, ensemble.Unknown, agg.EndCondition())
}

// TestStopping_FixedCount counts down exactly and tags NtrajReached on the
// final sample, Timeout before it.
func TestStopping_FixedCount(t *testing.T) {
	const target = 4
	agg, err := ensemble.New([]string{"x"}, ensemble.WithFixedCount(target))
	require.NoError(t, err)

	// A finite policy that has not completed reports Timeout, so an
	// externally aborted run is distinguishable from a finished one.
	assert.Equal(t, ensemble.Timeout, agg.EndCondition())

	for i := 1; i <= target; i++ {
		left, addErr := agg.Add(traj(grid3(), []float64{1, 2, 3}))
		require.NoError(t, addErr)
		assert.Equal(t, float64(target-i), left)
		if i < target {
			assert.Equal(t, ensemble.Timeout, agg.EndCondition())
		}
	}
	assert.Equal(t, ensemble.NtrajReached, agg.EndCondition())
	assert.Equal(t, "ntraj reached", agg.EndCondition().String())
}

// TestStopping_FixedCountOvershoot: the policy tags completion at exactly
// the target; further adds still work and drive the remaining negative.
func TestStopping_FixedCountOvershoot(t *testing.T) {
	agg, err := ensemble.New([]string{"x"}, ensemble.WithFixedCount(2))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, addErr := agg.Add(traj(grid3(), []float64{1, 2, 3}))
		require.NoError(t, addErr)
	}
	require.Equal(t, ensemble.NtrajReached, agg.EndCondition())

	left, err := agg.Add(traj(grid3(), []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, -1.0, left)
	assert.Equal(t, ensemble.NtrajReached, agg.EndCondition(), "tag survives overshoot")
}

// TestStopping_ToleranceNeedsTwoSamples: the variance estimate is undefined
// with one sample, so the first remaining is +Inf.
func TestStopping_ToleranceNeedsTwoSamples(t *testing.T) {
	agg, err := ensemble.New([]string{"x"},
		ensemble.WithTargetTolerance(100, ensemble.Tolerance{Atol: 0.5}))
	require.NoError(t, err)

	left, err := agg.Add(traj(grid3(), []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.True(t, math.IsInf(left, 1), "one sample: remaining must be +Inf")

	left, err = agg.Add(traj(grid3(), []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.False(t, math.IsInf(left, 1), "two samples: remaining must be finite")
}

// TestStopping_ToleranceIdenticalRuns: zero variance means one trajectory
// suffices, so the second add already completes the policy.
func TestStopping_ToleranceIdenticalRuns(t *testing.T) {
	agg, err := ensemble.New([]string{"x"},
		ensemble.WithTargetTolerance(100, ensemble.Tolerance{Atol: 0.1}))
	require.NoError(t, err)

	_, err = agg.Add(traj(grid3(), []float64{1, 2, 3}))
	require.NoError(t, err)
	left, err := agg.Add(traj(grid3(), []float64{1, 2, 3}))
	require.NoError(t, err)

	// estimate = ceil(0 + 1) = 1, consumed 2, so remaining is -1.
	assert.Equal(t, -1.0, left)
	assert.Equal(t, ensemble.TargetToleranceReached, agg.EndCondition())
	assert.Equal(t, "target tolerance reached", agg.EndCondition().String())
}

// TestStopping_ToleranceEstimate pins the plug-in formula on a two-sample
// ensemble with known variance.
func TestStopping_ToleranceEstimate(t *testing.T) {
	// Constant-in-time series 0 and 1: avg 0.5, plug-in variance 0.25.
	// target = atol = 0.1, so estimate = ceil(0.25/0.01 + 1) = 26.
	agg, err := ensemble.New([]string{"x"},
		ensemble.WithTargetTolerance(1000, ensemble.Tolerance{Atol: 0.1}))
	require.NoError(t, err)

	_, err = agg.Add(traj(grid3(), []float64{0, 0, 0}))
	require.NoError(t, err)
	left, err := agg.Add(traj(grid3(), []float64{1, 1, 1}))
	require.NoError(t, err)

	assert.Equal(t, 24.0, left, "estimate 26 minus 2 consumed")
	assert.Equal(t, ensemble.Timeout, agg.EndCondition(), "not finished yet")
}

// TestStopping_ToleranceCap: the estimate never exceeds the configured cap.
func TestStopping_ToleranceCap(t *testing.T) {
	// Same ensemble as above (estimate 26) but capped at 5.
	agg, err := ensemble.New([]string{"x"},
		ensemble.WithTargetTolerance(5, ensemble.Tolerance{Atol: 0.1}))
	require.NoError(t, err)

	_, err = agg.Add(traj(grid3(), []float64{0, 0, 0}))
	require.NoError(t, err)
	left, err := agg.Add(traj(grid3(), []float64{1, 1, 1}))
	require.NoError(t, err)

	assert.Equal(t, 3.0, left, "cap 5 minus 2 consumed")
}

// TestStopping_ToleranceRelative: with rtol only, the target scales with the
// running average, so large-magnitude observables converge sooner.
func TestStopping_ToleranceRelative(t *testing.T) {
	agg, err := ensemble.New([]string{"x"},
		ensemble.WithTargetTolerance(1000, ensemble.Tolerance{Rtol: 0.5}))
	require.NoError(t, err)

	// Series 9 and 11: avg 10, variance 1, target 0.5*10 = 5.
	// estimate = ceil(1/25 + 1) = 2, so the second add completes.
	_, err = agg.Add(traj(grid3(), []float64{9, 9, 9}))
	require.NoError(t, err)
	left, err := agg.Add(traj(grid3(), []float64{11, 11, 11}))
	require.NoError(t, err)

	assert.Equal(t, 0.0, left)
	assert.Equal(t, ensemble.TargetToleranceReached, agg.EndCondition())
}

// TestStopping_ToleranceBroadcast: one pair covers every observable; the
// worst per-observable ratio drives the estimate.
func TestStopping_ToleranceBroadcast(t *testing.T) {
	agg, err := ensemble.New([]string{"calm", "noisy"},
		ensemble.WithTargetTolerance(1000, ensemble.Tolerance{Atol: 0.1}))
	require.NoError(t, err)

	// "calm" is identical across runs; "noisy" alternates 0/1 and must
	// dominate: estimate = ceil(0.25/0.01 + 1) = 26.
	_, err = agg.Add(traj(grid3(), []float64{5, 5, 5}, []float64{0, 0, 0}))
	require.NoError(t, err)
	left, err := agg.Add(traj(grid3(), []float64{5, 5, 5}, []float64{1, 1, 1}))
	require.NoError(t, err)

	assert.Equal(t, 24.0, left)
}

// TestStopping_TolerancePerObservable: per-key pairs apply in key order, so
// loosening only the noisy key's tolerance changes the estimate.
func TestStopping_TolerancePerObservable(t *testing.T) {
	agg, err := ensemble.New([]string{"calm", "noisy"},
		ensemble.WithTargetTolerance(1000,
			ensemble.Tolerance{Atol: 0.001},
			ensemble.Tolerance{Atol: 0.5},
		))
	require.NoError(t, err)

	// calm has zero variance regardless of its tight tolerance; noisy has
	// variance 0.25 against target 0.5: estimate = ceil(1 + 1) = 2.
	_, err = agg.Add(traj(grid3(), []float64{5, 5, 5}, []float64{0, 0, 0}))
	require.NoError(t, err)
	left, err := agg.Add(traj(grid3(), []float64{5, 5, 5}, []float64{1, 1, 1}))
	require.NoError(t, err)

	assert.Equal(t, 0.0, left)
	assert.Equal(t, ensemble.TargetToleranceReached, agg.EndCondition())
}
