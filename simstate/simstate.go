// Package simstate holds the simulation clock and counters exposed to
// user callbacks (spec §4.I). Mutation is the driver's responsibility;
// user code should treat a *State it receives as read-only, following
// the same exported-struct-field idiom the driver itself uses for
// ClusterSimulator-style state (cf. the teacher's
// sim/cluster/simulator.go, which exposes Clock/Horizon directly rather
// than behind getters).
package simstate

// State is the simulation's elapsed time, horizon, and counters.
type State struct {
	ElapsedTime float64 // accumulated time, not counting the in-progress sector
	TSector     float64 // elapsed time within the sector currently being processed
	MaxTime     float64 // sum of the runTime arguments of every Run call so far

	NumLocalEvents  int64 // cell-centered + over-lattice events executed on this partition
	NumGlobalSteps  int64 // outer-loop quanta completed
}

// CurrentTime returns the observable "current simulated time": elapsed
// time plus whatever has elapsed within the sector being processed,
// so a callback invoked mid-sector sees a monotonically increasing
// clock (spec §4.I).
func (s *State) CurrentTime() float64 {
	return s.ElapsedTime + s.TSector
}
