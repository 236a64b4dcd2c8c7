// Package ensemble_test provides lightweight helpers shared across the
// *_test.go files in this package: trajectory literals, deterministic
// synthetic ensembles, and numeric closeness assertions.
package ensemble_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/katalvlaran/trajstat/qstate"
	"github.com/katalvlaran/trajstat/trajectory"
)

// -----------------------------------------------------------------------------
// Constants - single source of truth for test knobs
// -----------------------------------------------------------------------------

const (
	// epsTight accepts only floating-point rounding noise.
	epsTight = 1e-12

	// epsLoose is for quantities assembled from many rounded terms.
	epsLoose = 1e-9

	// seedDet is the deterministic seed for synthetic ensembles: same seed,
	// same ensemble, on every platform.
	seedDet = int64(7)
)

// grid3 is the canonical three-point time grid used across tests.
func grid3() []float64 { return []float64{0, 1, 2} }

// newSeed mints a unique run token; tests that assert on seed CONTENT build
// their own literals instead.
func newSeed() trajectory.Seed { return trajectory.Seed(uuid.NewString()) }

// traj builds a bare trajectory: a time grid plus one observable series per
// entry of expect, with a fresh unique seed.
func traj(times []float64, expect ...[]float64) *trajectory.Trajectory {
	cp := make([][]float64, len(expect))
	for i, series := range expect {
		cp[i] = append([]float64(nil), series...)
	}

	return &trajectory.Trajectory{
		Times:  append([]float64(nil), times...),
		Expect: cp,
		Seed:   newSeed(),
	}
}

// basisKet returns |i⟩ in a dim-dimensional space, failing the test on
// invalid input.
func basisKet(t *testing.T, dim, i int) *qstate.Ket {
	t.Helper()
	amp := make([]complex128, dim)
	amp[i] = 1
	k, err := qstate.NewKet(amp)
	if err != nil {
		t.Fatalf("NewKet: %v", err)
	}

	return k
}

// stateTraj builds a trajectory carrying only state snapshots (no
// observables): the same basis ket at every grid point, doubling as the
// final state.
func stateTraj(t *testing.T, times []float64, dim, level int) *trajectory.Trajectory {
	t.Helper()
	states := make([]qstate.State, len(times))
	for i := range states {
		states[i] = basisKet(t, dim, level)
	}

	return &trajectory.Trajectory{
		Times:      append([]float64(nil), times...),
		States:     states,
		FinalState: states[len(states)-1],
		Expect:     [][]float64{},
		Seed:       newSeed(),
	}
}

// synthEnsemble generates n deterministic pseudo-random single-observable
// trajectories on the given grid, values uniform in [lo, hi).
func synthEnsemble(n int, times []float64, lo, hi float64) []*trajectory.Trajectory {
	rng := rand.New(rand.NewSource(seedDet))
	out := make([]*trajectory.Trajectory, n)
	for r := range out {
		series := make([]float64, len(times))
		for t := range series {
			series[t] = lo + (hi-lo)*rng.Float64()
		}
		out[r] = traj(times, series)
	}

	return out
}

// mustFloatClose asserts |got − want| <= abs.
func mustFloatClose(t *testing.T, got, want, abs float64) {
	t.Helper()
	if math.Abs(got-want) > abs {
		t.Fatalf("float mismatch: got=%.17g want=%.17g (abs=%.1e)", got, want, abs)
	}
}

// mustSeriesClose asserts elementwise closeness of two float64 slices.
func mustSeriesClose(t *testing.T, got, want []float64, abs float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range got {
		mustFloatClose(t, got[i], want[i], abs)
	}
}
