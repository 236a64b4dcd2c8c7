// Package qstate provides the minimal state vector-space consumed by the
// ensemble aggregation core: pure states (kets) and dense mixed-state
// operators (density matrices), closed under addition and scalar division.
//
// 🚀 What is qstate?
//
//	The smallest algebra that makes trajectory averaging well-defined:
//	  • Ket      — a pure state |ψ⟩ as a complex amplitude vector
//	  • Operator — a dense complex square matrix (mixed-state representation)
//	  • ToDensity — the single conversion point |ψ⟩ ↦ |ψ⟩⟨ψ|
//
// Averaging pure state vectors directly is physically meaningless; only the
// density-matrix representation is closed under convex combination. Every
// accumulator in ensemble/ therefore converts through ToDensity exactly once
// before summation.
//
// ✨ Key guarantees:
//   - Deterministic fixed-order loops (row-major i→j traversal, no maps)
//   - Safe public surface: At/Set return sentinel errors, never panic
//   - O(d) ket storage, O(d²) operator storage, O(d²) accumulation ops
//
// ⚙️ Usage:
//
//	psi, _ := qstate.NewKet([]complex128{1, 0})
//	rho := psi.ToDensity()          // |0⟩⟨0|
//	acc, _ := qstate.ZeroLike(rho)  // zero accumulator of the same shape
//	_ = acc.AddInPlace(rho)         // running density sum
//	avg := acc.Scale(complex(1.0/float64(n), 0))
//
// See ensemble/ for how these accumulators are driven per trajectory.
package qstate
