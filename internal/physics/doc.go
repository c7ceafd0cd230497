// Package physics holds the model of the circular restricted three-body
// problem in the synodic frame: the equations of motion, the effective
// potential, the conserved quantities and the Lagrange points.
//
// [CRTBP] implements [dynamo.System] and [dynamo.Hamiltonian], with the
// Jacobi integral standing in for the energy:
//
//	model, _ := physics.NewCRTBP(0.01215)
//	cj := model.Energy(x) // Jacobi constant, NaN on collision
//
// # Lagrange points
//
// [LagrangePoints] uses truncated series in (mu/3)^(1/3) for L1-L3. They
// are good for small mu and degrade steadily as mu approaches 0.5.
// [RefineLagrangePoints] polishes the collinear points with Newton
// iteration on the exact equilibrium condition.
package physics
