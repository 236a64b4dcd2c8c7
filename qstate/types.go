// SPDX-License-Identifier: MIT

// Package qstate: domain types of the state vector-space.
// This file intentionally contains ONLY the State contract and the two
// concrete representations; operations live in ket.go and operator.go,
// errors in errors.go, per the package conventions.
package qstate

// State is the opaque system-state contract consumed by the aggregation
// core. A State only needs to report its Hilbert-space dimension and to
// convert itself into the density-matrix-equivalent representation — the
// form that is closed under averaging.
//
// Implementations: *Ket (pure state) and *Operator (mixed state).
type State interface {
	// Dim returns the Hilbert-space dimension d of the state.
	// Complexity: O(1).
	Dim() int

	// ToDensity returns the density-matrix-equivalent representation.
	// For a pure state this is the projector |ψ⟩⟨ψ| (a fresh Operator);
	// for an Operator it is the receiver itself (no copy).
	// Complexity: O(d²) for kets, O(1) for operators.
	ToDensity() *Operator
}

// Ket represents a pure state |ψ⟩ as a complex amplitude vector.
// The amplitudes are owned by the Ket; constructors copy their input so
// callers cannot alias the internal buffer.
type Ket struct {
	amp []complex128 // amplitudes, length d >= 1
}

// Operator represents a mixed state (or any linear operator) as a dense
// complex square matrix in row-major order with the explicit index formula
// i*dim + j. Row-major flat storage keeps accumulation loops cache-friendly
// and deterministic.
type Operator struct {
	dim  int          // d >= 1
	data []complex128 // len == dim*dim, row-major
}
