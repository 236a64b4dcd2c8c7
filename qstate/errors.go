// SPDX-License-Identifier: MIT
// Package qstate: sentinel error set.
// This file defines ONLY package-level sentinel errors used across qstate.
// All operations MUST return these sentinels and tests MUST check them via
// errors.Is. No operation panics on user-triggered error conditions; panics
// are reserved for programmer errors in private helpers (if any).

package qstate

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "qstate: ..." for consistency and to allow
// easy grepping across logs. Do not %w wrap these sentinels when returning
// directly; if context is essential, wrap with fmt.Errorf("ctx: %w", ErrX)
// at the outer boundary — callers will still use errors.Is to match.

var (
	// ErrBadDim is returned when a requested dimension is invalid (d <= 0)
	// or a ket is constructed from an empty amplitude slice.
	ErrBadDim = errors.New("qstate: invalid dimension")

	// ErrOutOfRange indicates that an index (row, column or amplitude) is
	// outside valid bounds. Public indexers (At/Set) MUST return this, not panic.
	ErrOutOfRange = errors.New("qstate: index out of range")

	// ErrDimMismatch indicates incompatible dimensions between operands,
	// e.g. AddInPlace of two operators with different d.
	ErrDimMismatch = errors.New("qstate: dimension mismatch")

	// ErrNilState indicates that a nil State (receiver or argument) was used
	// where a concrete state is required.
	ErrNilState = errors.New("qstate: nil state")

	// ErrNonSquare signals that a square row set was required but the input
	// had a row whose length differs from the row count.
	ErrNonSquare = errors.New("qstate: rows do not form a square matrix")
)
