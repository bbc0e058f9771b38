// Package solver implements the event list used by the outer sector
// loop to sample and advance the simulation clock (spec §4.F), as two
// interchangeable strategies grounded on original_source's
// SolverDynamicSchulze and SolverBinaryTree: a grouped-map solver
// keyed by exact propensity value, and a binary-tree-of-partial-sums
// solver. Both implement Solver, so a driver can select either without
// caring which is in use.
package solver

import (
	"github.com/jjramsey/kmcthinfilm-go/eventid"
	"github.com/jjramsey/kmcthinfilm-go/rng"
)

// Solver accumulates propensities per sector, samples an event
// proportional to propensity, and advances a clock by the Gillespie
// waiting time. A Solver instance owns per-sector state for exactly as
// many sectors as it was constructed with.
type Solver interface {
	// BeginBuildingEventList discards any previous contents and
	// prepares to receive entries via AddCellCenteredEntry and
	// AddOverLatticeEntry. numOverLatticeEvents and numReservedPlanes
	// size the backing EventIdMap the same way the lattice's own
	// NumPlanesToReserve does.
	BeginBuildingEventList(numOverLatticeEvents, numReservedPlanes int)

	// AddCellCenteredEntry and AddOverLatticeEntry may only be called
	// between BeginBuildingEventList and EndBuildingEventList.
	AddCellCenteredEntry(eid eventid.EventId, propensity float64, sector int)
	AddOverLatticeEntry(eid eventid.EventId, propensity float64, sector int)

	// EndBuildingEventList finishes any bulk structural work the
	// implementation defers until the whole initial list is known
	// (the binary-tree solver builds its internal nodes here).
	EndBuildingEventList()

	// AddOrUpdateCellCenteredEntry inserts, updates, or removes (when
	// propensity <= 0) a cell-centered event's entry after the list
	// has been built, in response to a lattice change. Safe to call
	// outside Begin/EndBuildingEventList.
	AddOrUpdateCellCenteredEntry(eid eventid.EventId, propensity float64, sector int)

	// ChooseEventAndAdvanceTime samples one event from sector
	// proportional to propensity, advances *time by the Gillespie
	// waiting time -ln(u)/totalPropensity, and reports false if the
	// sector has no events.
	ChooseEventAndAdvanceTime(sector int, src rng.Source, time *float64) (eventid.EventId, bool)

	// NoMoreEvents reports whether sector currently has zero total
	// propensity.
	NoMoreEvents(sector int) bool

	// TotalPropensity returns the sector's current total propensity,
	// used by MaxAvgPropensityPerPossEvent and by tests.
	TotalPropensity(sector int) float64

	// NumCellCenteredEvents returns how many of sector's entries are
	// cell-centered (excluding over-lattice entries), used by the
	// MAX_AVG_PROPENSITY_PER_POSS_EVENT time-increment scheme.
	NumCellCenteredEvents(sector int) int

	// MaxAvgPropensityPerPossEvent and MaxSinglePropensity feed the
	// parallel time-increment schemes (spec §4.H); both exclude
	// over-lattice propensity from their inputs, following
	// original_source's getLocalMaxAvgPropensityPerPossEvent/
	// getLocalMaxSinglePropensity.
	MaxAvgPropensityPerPossEvent(sector int) float64
	MaxSinglePropensity(sector int) float64
}
