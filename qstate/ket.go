// SPDX-License-Identifier: MIT

// Package qstate: pure-state (ket) construction and projection.

package qstate

// NewKet builds a pure state from the given amplitude vector.
// The slice is copied; the caller keeps ownership of its input.
//
// Returns:
//   - *Ket: the constructed state.
//
// Errors:
//   - ErrBadDim when amp is empty.
//
// Complexity: O(d).
func NewKet(amp []complex128) (*Ket, error) {
	if len(amp) == 0 {
		return nil, ErrBadDim
	}
	buf := make([]complex128, len(amp))
	copy(buf, amp)

	return &Ket{amp: buf}, nil
}

// Dim returns the Hilbert-space dimension of the ket. Complexity: O(1).
func (k *Ket) Dim() int { return len(k.amp) }

// At returns the amplitude at index i.
//
// Errors:
//   - ErrOutOfRange when i < 0 or i >= Dim().
//
// Complexity: O(1).
func (k *Ket) At(i int) (complex128, error) {
	if i < 0 || i >= len(k.amp) {
		return 0, ErrOutOfRange
	}

	return k.amp[i], nil
}

// ToDensity returns the projector |ψ⟩⟨ψ| as a fresh Operator.
// Entry (i,j) is amp[i] * conj(amp[j]); fixed i→j traversal.
//
// This is the single pure→mixed conversion point of the library: averaging
// kets directly is not physically meaningful, so every accumulator converts
// through here before summation.
//
// Complexity: O(d²).
func (k *Ket) ToDensity() *Operator {
	d := len(k.amp)
	out := &Operator{dim: d, data: make([]complex128, d*d)}
	var i, j int
	for i = 0; i < d; i++ {
		base := i * d
		ai := k.amp[i]
		for j = 0; j < d; j++ {
			out.data[base+j] = ai * conj(k.amp[j])
		}
	}

	return out
}

// conj returns the complex conjugate without importing math/cmplx.
func conj(v complex128) complex128 {
	return complex(real(v), -imag(v))
}
