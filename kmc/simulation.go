// Package kmc implements the event-driven simulation driver (spec
// §4.G) and the simulation state it exposes to callbacks (spec §4.I).
// It generalizes original_source's Simulation.{hpp,cpp}: callers
// register cell-centered event groups, over-lattice events, and
// periodic actions against a *lattice.Lattice, then call Run to
// advance the Gillespie clock until a requested horizon elapses.
package kmc

import (
	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/eventid"
	"github.com/jjramsey/kmcthinfilm-go/executor"
	"github.com/jjramsey/kmcthinfilm-go/kmcerr"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
	"github.com/jjramsey/kmcthinfilm-go/rng"
	"github.com/jjramsey/kmcthinfilm-go/simstate"
	"github.com/jjramsey/kmcthinfilm-go/solver"
	"github.com/jjramsey/kmcthinfilm-go/timeincr"
	"github.com/jjramsey/kmcthinfilm-go/transport"
)

type registeredGroup struct {
	id       int
	group    *executor.Group
	kindBase int
	active   bool
}

type registeredOverLattice struct {
	id     int
	idx    int
	event  *executor.OverLatticeEvent
	active bool
}

// Simulation is the top-level driver: it owns no lattice storage of
// its own, instead wiring together a *lattice.Lattice, a
// solver.Solver, an rng.PartitionedRNG, a timeincr.Params, and a
// transport.PartitionTransport into the run loop described by spec
// §5.
type Simulation struct {
	lat       *lattice.Lattice
	transport transport.PartitionTransport

	slv   solver.Solver
	rngs  *rng.PartitionedRNG
	tIncr *timeincr.Params

	neighborRanks []int

	state simstate.State

	groups    []*registeredGroup
	groupByID map[int]int

	overLattice     []*registeredOverLattice
	overLatticeByID map[int]int

	timePeriodic []*timePeriodicAction
	stepPeriodic []*stepPeriodicAction

	trackChangedByPeriodic bool

	ctx             eventid.IdCtx
	reversedOffsets []cellgrid.Offset
	preambleDone    bool
}

// NewSimulation builds an unconfigured driver over lat, exchanging
// ghost updates and reductions through tr. Call SetSolver, SetRNG,
// and SetTimeIncrScheme before Run.
func NewSimulation(lat *lattice.Lattice, tr transport.PartitionTransport) *Simulation {
	return &Simulation{
		lat:             lat,
		transport:       tr,
		groupByID:       make(map[int]int),
		overLatticeByID: make(map[int]int),
	}
}

// SetSolver installs the event-list solver (spec §4.F). Must be
// called before Run.
func (s *Simulation) SetSolver(slv solver.Solver) { s.slv = slv }

// SetRNG installs the partitioned RNG (spec §4.J). Must be called
// before Run.
func (s *Simulation) SetRNG(r *rng.PartitionedRNG) { s.rngs = r }

// SetTimeIncrScheme installs the time-increment scheme (spec §4.H).
// Required before every Run, serial runs included: Run always advances
// in quanta of the scheme's time step and panics when no scheme is set.
// A serial run has no separate per-event time path.
func (s *Simulation) SetTimeIncrScheme(p *timeincr.Params) { s.tIncr = p }

// SetNeighborRanks declares which other ranks this partition's ghost
// halo exchanges with. Only meaningful when the transport has more
// than one rank; ignored otherwise.
func (s *Simulation) SetNeighborRanks(ranks []int) { s.neighborRanks = append([]int(nil), ranks...) }

// SetTrackCellsChangedByPeriodicActions selects how a periodic
// action's lattice writes are reconciled into the event list
// afterward: true incrementally recomputes propensities from the
// change log (cheap, but requires every periodic action to only
// write through Lattice.SetInt/SetFloat so writes are logged); false
// instead does a full rebuild (spec §9 Open Question #1, decided in
// DESIGN.md).
func (s *Simulation) SetTrackCellsChangedByPeriodicActions(track bool) {
	s.trackChangedByPeriodic = track
}

// AddCellCenteredEventGroup registers grp under id. Must be called
// before the first Run, since the kind-index space an
// EventGroup.Kinds occupies is assigned once, in registration order,
// during the preamble and frozen for the Simulation's lifetime (spec
// §9 Open Question #3).
func (s *Simulation) AddCellCenteredEventGroup(id int, grp *executor.Group) {
	kmcerr.ExitIf(s.preambleDone, "kmc: cannot add a cell-centered event group after Run has started")
	_, exists := s.groupByID[id]
	kmcerr.ExitIff(exists, "kmc: cell-centered event group %d already registered", id)

	s.groupByID[id] = len(s.groups)
	s.groups = append(s.groups, &registeredGroup{id: id, group: grp, active: true})
}

// ChangeCellCenteredEventGroup replaces the propensity function and
// executors of an already-registered group, keeping its kind-index
// assignment. grp must declare the same number of kinds as the
// original registration.
func (s *Simulation) ChangeCellCenteredEventGroup(id int, grp *executor.Group) {
	idx, ok := s.groupByID[id]
	kmcerr.ExitIff(!ok, "kmc: cell-centered event group %d not registered", id)
	rg := s.groups[idx]
	kmcerr.ExitIff(len(grp.Kinds) != len(rg.group.Kinds),
		"kmc: changeCellCenteredEventGroup %d must keep the same kind count (%d != %d)",
		id, len(grp.Kinds), len(rg.group.Kinds))
	rg.group = grp
}

// RemoveCellCenteredEventGroup deactivates group id: its kinds stop
// contributing propensity, and if the event list has already been
// built, any of its existing entries are zeroed out (removed) from
// the solver immediately.
func (s *Simulation) RemoveCellCenteredEventGroup(id int) {
	idx, ok := s.groupByID[id]
	kmcerr.ExitIff(!ok, "kmc: cell-centered event group %d not registered", id)
	rg := s.groups[idx]
	rg.active = false
	if s.preambleDone {
		s.zeroGroupEntries(rg)
	}
}

func (s *Simulation) zeroGroupEntries(rg *registeredGroup) {
	s.forEachOwnedCell(func(ci cellgrid.CellInds, sector int) {
		for k := 0; k < rg.group.NumKinds(); k++ {
			eid := eventid.CellCentered(s.ctx, ci, rg.kindBase+k)
			s.slv.AddOrUpdateCellCenteredEntry(eid, 0, sector)
		}
	})
}

// AddOverLatticeEvent registers ev under id. Its sector-wide
// propensity (RatePerArea times the sector's horizontal area) is
// recomputed whenever a sector's bounding box changes, which in this
// engine only happens at construction, so no recompute hook is
// needed beyond the initial and any post-removal rebuild.
func (s *Simulation) AddOverLatticeEvent(id int, ev *executor.OverLatticeEvent) {
	kmcerr.ExitIf(s.preambleDone, "kmc: cannot add an over-lattice event after Run has started")
	_, exists := s.overLatticeByID[id]
	kmcerr.ExitIff(exists, "kmc: over-lattice event %d already registered", id)

	idx := len(s.overLattice)
	s.overLatticeByID[id] = idx
	s.overLattice = append(s.overLattice, &registeredOverLattice{id: id, idx: idx, event: ev, active: true})
}

// ChangeOverLatticeEvent replaces the rate and executor of an
// already-registered over-lattice event.
func (s *Simulation) ChangeOverLatticeEvent(id int, ev *executor.OverLatticeEvent) {
	idx, ok := s.overLatticeByID[id]
	kmcerr.ExitIff(!ok, "kmc: over-lattice event %d not registered", id)
	s.overLattice[idx].event = ev
}

// RemoveOverLatticeEvent deactivates over-lattice event id, zeroing
// any existing entries from the solver if the event list has already
// been built.
func (s *Simulation) RemoveOverLatticeEvent(id int) {
	idx, ok := s.overLatticeByID[id]
	kmcerr.ExitIff(!ok, "kmc: over-lattice event %d not registered", id)
	rol := s.overLattice[idx]
	rol.active = false
	if s.preambleDone {
		for sector := 0; sector < s.lat.NumSectors(); sector++ {
			eid := eventid.OverLattice(rol.idx, sector)
			s.slv.AddOrUpdateCellCenteredEntry(eid, 0, sector)
		}
	}
}

// PreparedIdCtx finalizes and returns the EventId flattening context
// (spec §4.B) for the cell-centered groups registered so far. A
// caller constructing a solver.Solver needs this ctx before it can
// call SetSolver, since the solver's EventIdMap is sized from it at
// construction; call PreparedIdCtx once every AddCellCenteredEventGroup
// call has been made. The first call freezes kind assignment for the
// Simulation's lifetime (spec §9 Open Question #3); a later call, or
// Run calling it implicitly, just returns the same ctx.
func (s *Simulation) PreparedIdCtx() eventid.IdCtx {
	if !s.preambleDone {
		s.runPreamble()
	}
	return s.ctx
}

func (s *Simulation) groupForKind(kind int) (*registeredGroup, int) {
	for _, rg := range s.groups {
		n := rg.group.NumKinds()
		if kind >= rg.kindBase && kind < rg.kindBase+n {
			return rg, kind - rg.kindBase
		}
	}
	return nil, 0
}

func (s *Simulation) forEachOwnedCell(fn func(ci cellgrid.CellInds, sector int)) {
	for sector := 0; sector < s.lat.NumSectors(); sector++ {
		bbox := s.lat.GetSectorPlanarBbox(sector)
		for k := 0; k < s.lat.Height(); k++ {
			for j := bbox.JMin; j <= bbox.JMax; j++ {
				for i := bbox.IMin; i <= bbox.IMax; i++ {
					fn(cellgrid.CellInds{I: i, J: j, K: k}, sector)
				}
			}
		}
	}
}

// propensitiesAt invokes emit once per active group kind registered
// at ci, in registration order.
func (s *Simulation) propensitiesAt(ci cellgrid.CellInds, emit func(eid eventid.EventId, propensity float64)) {
	for _, rg := range s.groups {
		if !rg.active {
			continue
		}
		props := rg.group.Propensities(ci, s.lat)
		for k, p := range props {
			emit(eventid.CellCentered(s.ctx, ci, rg.kindBase+k), p)
		}
	}
}

func computeReversedOffsets(groups []*registeredGroup) []cellgrid.Offset {
	seen := make(map[cellgrid.Offset]bool)
	var out []cellgrid.Offset
	for _, rg := range groups {
		for _, o := range rg.group.ReadOffsets {
			neg := o.Neg()
			if !seen[neg] {
				seen[neg] = true
				out = append(out, neg)
			}
		}
	}
	sortOffsets(out)
	return out
}

func sortOffsets(offs []cellgrid.Offset) {
	// insertion sort: the reversed-offset set is small (bounded by the
	// handful of neighbor reads a propensity function uses), so this
	// avoids pulling in sort.Slice for a constant-size list.
	for i := 1; i < len(offs); i++ {
		for j := i; j > 0 && offsetLess(offs[j], offs[j-1]); j-- {
			offs[j], offs[j-1] = offs[j-1], offs[j]
		}
	}
}

func offsetLess(a, b cellgrid.Offset) bool {
	if a.DI != b.DI {
		return a.DI < b.DI
	}
	if a.DJ != b.DJ {
		return a.DJ < b.DJ
	}
	return a.DK < b.DK
}

// Rank and NumRanks report this driver's position in the transport's
// partition topology.
func (s *Simulation) Rank() int     { return s.transport.Rank() }
func (s *Simulation) NumRanks() int { return s.transport.NumRanks() }

// ElapsedTime, NumLocalEvents, and NumGlobalSteps mirror
// Simulation.hpp's eponymous accessors.
func (s *Simulation) ElapsedTime() float64   { return s.state.ElapsedTime }
func (s *Simulation) NumLocalEvents() int64  { return s.state.NumLocalEvents }
func (s *Simulation) NumGlobalSteps() int64  { return s.state.NumGlobalSteps }

// LocalPlanarBbox, SectorPlanarBbox, and GlobalPlanarBbox delegate to
// the underlying lattice's bounding-box accessors.
func (s *Simulation) LocalPlanarBbox(withGhost bool) cellgrid.Bbox { return s.lat.GetLocalPlanarBbox(withGhost) }
func (s *Simulation) SectorPlanarBbox(sector int) cellgrid.Bbox    { return s.lat.GetSectorPlanarBbox(sector) }
func (s *Simulation) GlobalPlanarBbox() cellgrid.Bbox              { return s.lat.GetGlobalPlanarBbox() }
