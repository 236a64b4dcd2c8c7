// SPDX-License-Identifier: MIT

// Package qstate - dense Operator storage (row-major) & accumulation ops.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the explicit index
//     formula i*dim + j.
//   - Guarantee safety at the public surface: At/Set return errors instead
//     of panicking.
//   - Keep algorithmic determinism (fixed loop orders, no map iteration).
//   - Supply exactly the vector-space operations ensemble accumulators need:
//     zero-like allocation, in-place addition, scalar multiplication, trace.
//
// Complexity quicksheet:
//   - NewOperator: O(d²) zero-init; At/Set: O(1); Clone: O(d²);
//     AddInPlace/Scale: O(d²); Trace: O(d).

package qstate

import "math"

// NewOperator allocates a zero-valued dim×dim operator.
//
// Errors:
//   - ErrBadDim when dim <= 0.
//
// Complexity: O(d²).
func NewOperator(dim int) (*Operator, error) {
	if dim <= 0 {
		return nil, ErrBadDim
	}

	return &Operator{dim: dim, data: make([]complex128, dim*dim)}, nil
}

// OperatorFromRows builds an operator from a square row set.
// Rows are copied; the caller keeps ownership of its input.
//
// Errors:
//   - ErrBadDim when rows is empty.
//   - ErrNonSquare when any row length differs from the row count.
//
// Complexity: O(d²).
func OperatorFromRows(rows [][]complex128) (*Operator, error) {
	d := len(rows)
	if d == 0 {
		return nil, ErrBadDim
	}
	out := &Operator{dim: d, data: make([]complex128, d*d)}
	var i int
	for i = 0; i < d; i++ {
		if len(rows[i]) != d {
			return nil, ErrNonSquare
		}
		copy(out.data[i*d:(i+1)*d], rows[i])
	}

	return out, nil
}

// ZeroLike returns a zero operator shaped like the density representation
// of s. This is how accumulators are lazily initialized from the first
// trajectory's states.
//
// Errors:
//   - ErrNilState when s is nil.
//
// Complexity: O(d²).
func ZeroLike(s State) (*Operator, error) {
	if s == nil {
		return nil, ErrNilState
	}

	d := s.Dim()

	return &Operator{dim: d, data: make([]complex128, d*d)}, nil
}

// Dim returns the operator dimension d. Complexity: O(1).
func (o *Operator) Dim() int { return o.dim }

// ToDensity returns the receiver: an Operator already is the
// density-matrix-equivalent representation. Complexity: O(1).
func (o *Operator) ToDensity() *Operator { return o }

// At retrieves the element at (i, j).
//
// Errors:
//   - ErrOutOfRange when i or j is outside [0, d).
//
// Complexity: O(1).
func (o *Operator) At(i, j int) (complex128, error) {
	if i < 0 || i >= o.dim || j < 0 || j >= o.dim {
		return 0, ErrOutOfRange
	}

	return o.data[i*o.dim+j], nil
}

// Set assigns v at (i, j).
//
// Errors:
//   - ErrOutOfRange when i or j is outside [0, d).
//
// Complexity: O(1).
func (o *Operator) Set(i, j int, v complex128) error {
	if i < 0 || i >= o.dim || j < 0 || j >= o.dim {
		return ErrOutOfRange
	}
	o.data[i*o.dim+j] = v

	return nil
}

// Clone returns an independent deep copy. Complexity: O(d²).
func (o *Operator) Clone() *Operator {
	buf := make([]complex128, len(o.data))
	copy(buf, o.data)

	return &Operator{dim: o.dim, data: buf}
}

// AddInPlace accumulates other into the receiver elementwise.
// The receiver is mutated; other is read-only.
//
// Errors:
//   - ErrNilState when other is nil.
//   - ErrDimMismatch when dimensions differ; the receiver is unchanged.
//
// Complexity: O(d²).
func (o *Operator) AddInPlace(other *Operator) error {
	if other == nil {
		return ErrNilState
	}
	if o.dim != other.dim {
		return ErrDimMismatch
	}
	for i := range o.data {
		o.data[i] += other.data[i]
	}

	return nil
}

// Add returns a + b as a fresh operator.
//
// Errors:
//   - ErrNilState when either operand is nil.
//   - ErrDimMismatch when dimensions differ.
//
// Complexity: O(d²).
func Add(a, b *Operator) (*Operator, error) {
	if a == nil || b == nil {
		return nil, ErrNilState
	}
	if a.dim != b.dim {
		return nil, ErrDimMismatch
	}
	out := a.Clone()
	for i := range out.data {
		out.data[i] += b.data[i]
	}

	return out, nil
}

// Scale returns f·O as a fresh operator; the receiver is unchanged.
// Division by n is Scale(complex(1/float64(n), 0)).
//
// Complexity: O(d²).
func (o *Operator) Scale(f complex128) *Operator {
	out := &Operator{dim: o.dim, data: make([]complex128, len(o.data))}
	for i, v := range o.data {
		out.data[i] = f * v
	}

	return out
}

// Trace returns Σ_i O[i,i]. Complexity: O(d).
func (o *Operator) Trace() complex128 {
	var tr complex128
	for i := 0; i < o.dim; i++ {
		tr += o.data[i*o.dim+i]
	}

	return tr
}

// Equalish reports whether two operators agree elementwise within eps
// (component-wise on real and imaginary parts). A nil other or a dimension
// mismatch is never "equalish".
//
// Complexity: O(d²).
func (o *Operator) Equalish(other *Operator, eps float64) bool {
	if other == nil || o.dim != other.dim {
		return false
	}
	for i := range o.data {
		dr := math.Abs(real(o.data[i]) - real(other.data[i]))
		di := math.Abs(imag(o.data[i]) - imag(other.data[i]))
		if dr > eps || di > eps {
			return false
		}
	}

	return true
}
