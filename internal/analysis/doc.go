// Package analysis inspects recorded trajectories.
//
//   - [DominantPeriod]: strongest period of a coordinate series via [PowerSpectrum]
//   - [Radius]: mean orbital radius and its spread about a center
//   - [OrbitsToASCII]: x-y plot of several bodies' paths
//
// # Orbital Period
//
// The x coordinate of a body on a closed orbit oscillates once per
// revolution, so its spectrum peaks at the orbital frequency:
//
//	period := analysis.DominantPeriod(xs, dt)
//	days := period / 86400
package analysis
