// Package dynamo defines the contracts shared by the simulator: plant
// dynamics, integrators, per-tick samples and the metrics and observers that
// consume them.
//
//   - [System]: continuous plant dX/dt = f(X, u, t)
//   - [Integrator]: advances a System by one step
//   - [Sample]: one control tick as recorded by the runner
//   - [Metric], [Observer]: consumers of samples
package dynamo
