package kmc

import (
	"context"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/eventid"
	"github.com/jjramsey/kmcthinfilm-go/executor"
	"github.com/jjramsey/kmcthinfilm-go/kmcerr"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
)

// Run advances the simulation by runTime units of simulated time,
// following original_source's Simulation::run_: a preamble (on the
// first call only), a full rebuild of the event list, an optional
// parallel jumpstart, then the main sector loop until ElapsedTime
// reaches MaxTime.
func (s *Simulation) Run(ctx context.Context, runTime float64) error {
	kmcerr.ExitIf(s.slv == nil, "kmc: Run called with no solver set")
	kmcerr.ExitIf(s.rngs == nil, "kmc: Run called with no RNG set")
	kmcerr.ExitIf(len(s.groups) == 0 && len(s.overLattice) == 0, "kmc: Run called with no events registered")
	kmcerr.ExitIf(s.lat.Height() < 1, "kmc: Run called with lattice height < 1")
	kmcerr.ExitIf(s.transport.NumRanks() > 1 && s.tIncr == nil,
		"kmc: a time-increment scheme must be set for a multi-partition run")

	if !s.preambleDone {
		s.runPreamble()
	}

	s.state.MaxTime += runTime
	s.lat.MarkRunning()

	if err := s.rebuildEventAndAddrMaps(); err != nil {
		return err
	}

	if s.transport.NumRanks() > 1 && s.tIncr != nil && s.tIncr.IsAdaptive() {
		if err := s.jumpstart(ctx); err != nil {
			return err
		}
	}

	tStop, err := s.computeTStop(ctx)
	if err != nil {
		return err
	}
	kmcerr.ExitIf(tStop <= 0, "kmc: initial time increment computed as non-positive")

	numSectors := s.lat.NumSectors()
	for s.state.ElapsedTime < s.state.MaxTime {
		for sector := 0; sector < numSectors; sector++ {
			if err := s.exchangeGhosts(ctx, sector); err != nil {
				return err
			}

			s.state.TSector = 0
			for {
				eid, ok := s.slv.ChooseEventAndAdvanceTime(sector, s.rngs.ForSector(sector), &s.state.TSector)
				if !ok || s.state.TSector > tStop {
					break
				}
				s.executeEvent(eid, sector)
				s.state.NumLocalEvents++
			}
			s.state.TSector = 0
		}

		s.state.ElapsedTime += tStop
		s.state.NumGlobalSteps++

		if err := s.runPeriodicActions(); err != nil {
			return err
		}

		tStop, err = s.computeTStop(ctx)
		if err != nil {
			return err
		}
	}

	return s.runEndOfSimPeriodicActions()
}

func (s *Simulation) runPreamble() {
	kindTotal := 0
	for _, rg := range s.groups {
		rg.kindBase = kindTotal
		kindTotal += rg.group.NumKinds()
	}

	local := s.lat.GetLocalPlanarBbox(false)
	s.ctx = eventid.IdCtx{W: local.Width(), H: local.Height(), NumKinds: kindTotal, IMin: local.IMin, JMin: local.JMin}
	s.reversedOffsets = computeReversedOffsets(s.groups)
	s.preambleDone = true
}

// rebuildEventAndAddrMaps recomputes the whole event list from
// scratch, mirroring rebuildEventAndAddrMaps_: every owned cell's
// group propensities plus every sector's over-lattice entries.
func (s *Simulation) rebuildEventAndAddrMaps() error {
	s.slv.BeginBuildingEventList(len(s.overLattice), s.lat.Height())

	s.forEachOwnedCell(func(ci cellgrid.CellInds, sector int) {
		s.propensitiesAt(ci, func(eid eventid.EventId, p float64) {
			if p > 0 {
				s.slv.AddCellCenteredEntry(eid, p, sector)
			}
		})
	})

	for sector := 0; sector < s.lat.NumSectors(); sector++ {
		area := float64(s.lat.GetSectorPlanarBbox(sector).Area())
		for _, rol := range s.overLattice {
			if !rol.active {
				continue
			}
			p := rol.event.RatePerArea * area
			if p > 0 {
				s.slv.AddOverLatticeEntry(eventid.OverLattice(rol.idx, sector), p, sector)
			}
		}
	}

	s.slv.EndBuildingEventList()
	s.lat.SetTrackType(lattice.ChangedSet)
	return nil
}

// jumpstart executes one event in each sector that starts with no
// cell-centered events at all, so an adaptive time-increment scheme
// has something nonzero to compute its first quantum from — mirroring
// run_'s parallel-only jumpstart, approximated here as advancing
// ElapsedTime by the cross-partition max of the per-sector draws.
func (s *Simulation) jumpstart(ctx context.Context) error {
	localElapsed := 0.0
	for sector := 0; sector < s.lat.NumSectors(); sector++ {
		if s.slv.NumCellCenteredEvents(sector) > 0 {
			continue
		}
		var t float64
		eid, ok := s.slv.ChooseEventAndAdvanceTime(sector, s.rngs.ForSector(sector), &t)
		if !ok {
			continue
		}
		s.executeEvent(eid, sector)
		s.state.NumLocalEvents++
		if t > localElapsed {
			localElapsed = t
		}
	}

	reduced, err := s.transport.ReduceMax(ctx, localElapsed)
	if err != nil {
		return err
	}
	s.state.ElapsedTime += reduced
	return nil
}

func (s *Simulation) computeTStop(ctx context.Context) (float64, error) {
	kmcerr.ExitIf(s.tIncr == nil, "kmc: no time-increment scheme set")
	local := s.tIncr.LocalDriverQuantity(s.slv, s.lat.NumSectors())
	reduced, err := s.transport.ReduceMax(ctx, local)
	if err != nil {
		return 0, err
	}
	return s.tIncr.TStop(reduced), nil
}

// executeEvent dispatches eid to the over-lattice or cell-centered
// executor it names, then reconciles the lattice writes that executor
// made into the event list.
func (s *Simulation) executeEvent(eid eventid.EventId, sector int) {
	if eid.IsOverLattice() {
		idx, sec := eid.OverLatticeInfo()
		if idx < 0 || idx >= len(s.overLattice) || !s.overLattice[idx].active {
			return
		}
		bbox := s.lat.GetSectorPlanarBbox(sec)
		src := s.rngs.ForSector(sector)
		i := bbox.IMin + int(src.NextUniformOpen01()*float64(bbox.Width()))
		j := bbox.JMin + int(src.NextUniformOpen01()*float64(bbox.Height()))
		if i > bbox.IMax {
			i = bbox.IMax
		}
		if j > bbox.JMax {
			j = bbox.JMax
		}
		ci := cellgrid.CellInds{I: i, J: j, K: s.lat.Height() - 1}
		s.overLattice[idx].event.Execute(ci, &s.state, s.lat)
		s.reconcileChanges()
		return
	}

	ci, kind := eid.CellCenteredInfo(s.ctx)
	rg, localKind := s.groupForKind(kind)
	if rg == nil || !rg.active {
		return
	}

	ek := rg.group.Kinds[localKind]
	switch ek.Kind {
	case executor.AutoTrack:
		ek.Auto(ci, &s.state, s.lat)
	case executor.SemiManual:
		ek.Semi(ci, &s.state, s.lat, ek.NewCellsToChangeSlice(s.lat))
	}
	s.reconcileChanges()
}

// reconcileChanges recomputes propensities for every cell the lattice
// recorded as changed since the last reconciliation, plus every cell
// whose propensity reads from one of those (the cells "affected by"
// the change, found via the reversed-offset set computed once in the
// preamble — mirroring updateEventAndAddrMapsFromChangedCell_ /
// updateEventAndAddrMapsFromAffectedCell_), then resets the change
// log for the next event.
func (s *Simulation) reconcileChanges() {
	changed := s.lat.ChangedCells()
	seen := make(map[cellgrid.CellInds]bool, 2*len(changed))
	for _, ci := range changed {
		seen[ci] = true
		s.recomputeCell(ci)
	}
	for _, ci := range changed {
		for _, off := range s.reversedOffsets {
			nci := s.wrapped(ci.Add(off))
			if seen[nci] {
				continue
			}
			seen[nci] = true
			s.recomputeCell(nci)
		}
	}
	s.lat.SetTrackType(lattice.ChangedSet)
}

func (s *Simulation) recomputeCell(ci cellgrid.CellInds) {
	if ci.K < 0 || ci.K >= s.lat.Height() {
		return
	}
	local := s.lat.GetLocalPlanarBbox(false)
	if !local.Contains(ci.I, ci.J) {
		return // owned by a different partition; reconciled when its ghost update arrives
	}
	sector := s.lat.SectorOf(ci)
	s.propensitiesAt(ci, func(eid eventid.EventId, p float64) {
		s.slv.AddOrUpdateCellCenteredEntry(eid, p, sector)
	})
}

func (s *Simulation) wrapped(ci cellgrid.CellInds) cellgrid.CellInds {
	w, h := s.lat.GlobalDims()
	wi, wj := cellgrid.Wrap(ci.I, ci.J, w, h)
	return cellgrid.CellInds{I: wi, J: wj, K: ci.K}
}

// exchangeGhosts synchronizes sector's boundary with every declared
// neighbor rank in one combined send+receive round trip, then
// reconciles propensities for any owned cell affected by a received
// ghost value. Collapses the original's separate pre-loop recv and
// post-loop send into a single call per sector, since
// transport.PartitionTransport only exposes one synchronous
// all-in-one primitive rather than decoupled nonblocking send/recv;
// see DESIGN.md.
func (s *Simulation) exchangeGhosts(ctx context.Context, sector int) error {
	if s.transport.NumRanks() <= 1 {
		return nil
	}

	payload := s.lat.GatherCellValues(s.lat.BoundaryCellsSparse(sector))
	outgoing := make(map[int][]lattice.GhostCellValue, len(s.neighborRanks))
	for _, r := range s.neighborRanks {
		outgoing[r] = payload
	}

	incoming, err := s.transport.SendRecvGhosts(ctx, outgoing)
	if err != nil {
		return err
	}
	s.lat.ClearExportBuffer(sector)
	s.applyIncomingGhosts(incoming)
	return nil
}

func (s *Simulation) applyIncomingGhosts(incoming map[int][]lattice.GhostCellValue) {
	ghostBbox := s.lat.GetLocalPlanarBbox(true)
	height := s.lat.Height()

	for _, payload := range incoming {
		inBounds := payload[:0:0]
		for _, v := range payload {
			if ghostBbox.Contains(v.CI.I, v.CI.J) && v.CI.K >= 0 && v.CI.K < height {
				inBounds = append(inBounds, v)
			}
		}
		if len(inBounds) == 0 {
			continue
		}
		for _, ci := range s.lat.ApplyGhostValues(inBounds) {
			s.reconcileGhostCell(ci)
		}
	}
}

// reconcileGhostCell recomputes propensities for every owned cell
// that reads from ci, a just-updated ghost replica — mirroring
// updateEventAndAddrMapsAffectedByGhostUpdates_. ci itself is never
// owned by this partition, so it is never recomputed directly.
func (s *Simulation) reconcileGhostCell(ci cellgrid.CellInds) {
	for _, off := range s.reversedOffsets {
		s.recomputeCell(s.wrapped(ci.Add(off)))
	}
}
