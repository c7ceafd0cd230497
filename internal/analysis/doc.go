// Package analysis characterizes the neighbourhood of the restricted
// three-body equilibria and the reachable regions of phase space.
//
//   - [Stability]: closed-form linear modes about a Lagrange point
//   - [ForbiddenRegion]: zero-velocity curves for a Jacobi constant
//   - [LyapunovExponent]: largest Lyapunov exponent by trajectory separation
//   - [PoincareSection]: upward crossings of the x axis
//   - [PowerSpectrum]: libration frequencies of a sampled component
//
// # Linear stability
//
// The triangular points are stable only below [RouthCriticalMu]:
//
//	m, err := analysis.StabilityFromState(1e-3, 0, 0, 0, mu, 4)
//	if err == nil && m.GrowthRate() > 0 {
//	    // perturbation grows exponentially
//	}
package analysis
