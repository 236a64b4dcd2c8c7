// Package ensemble: sentinel error set.
// All operations return these sentinels (possibly wrapped with call-site
// context via %w) and tests check them via errors.Is. Every condition below
// is a programmer/usage error: it surfaces immediately and is never retried
// or absorbed. Panics are reserved for unreachable states in private
// helpers that run after validation.

package ensemble

import "errors"

var (
	// ErrShapeMismatch is returned by Add when a trajectory is incompatible
	// with the accumulator shape established by the first trajectory
	// (different time grid, observable count, series length, state presence
	// or state dimension). The failed Add leaves the aggregation in its
	// pre-add state.
	ErrShapeMismatch = errors.New("ensemble: trajectory shape mismatch")

	// ErrConfiguration is returned at setup for invalid stopping-policy
	// parameters, duplicate observable keys, or pipeline registration after
	// ingestion has started. It is raised before any trajectory is accepted.
	ErrConfiguration = errors.New("ensemble: invalid configuration")

	// ErrIncompatible is returned by Merge when the two aggregations were
	// built with different observable sets, time grids or channel counts.
	// No partial merge occurs; both inputs remain unmodified.
	ErrIncompatible = errors.New("ensemble: incompatible aggregations")

	// ErrNilTrajectory is returned by Add for a nil trajectory sample.
	ErrNilTrajectory = errors.New("ensemble: nil trajectory")

	// ErrNilAggregation is returned by Merge when either operand is nil.
	ErrNilAggregation = errors.New("ensemble: nil aggregation")
)
