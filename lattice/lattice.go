// Package lattice implements the 3-D cell array with periodic horizontal
// wrap, on-demand height growth, optional ghost halos, sector
// partitioning, and a selectable change log (spec §4.D).
package lattice

import (
	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/kmcerr"
)

// plane holds one k-level's cells over the local extent plus ghost
// border, stored as a flat row-major slice.
type plane struct {
	cells []Cell
}

func newPlane(stride, rows, nInt, nFloat int) *plane {
	p := &plane{cells: make([]Cell, stride*rows)}
	for i := range p.cells {
		p.cells[i] = newCell(nInt, nFloat)
	}
	return p
}

// Params configures a Lattice at construction (spec §6 "LatticeParams").
type Params struct {
	GlobalW, GlobalH int          // global horizontal dims (periodic)
	Local            cellgrid.Bbox // this partition's owned (non-ghost) rectangle
	GhostX, GhostY   int           // ghost extent on each horizontal axis
	NInt, NFloat     int
	NumPlanesToReserve             int
	Decomp                         DecompKind
	SetEmptyCellVals               SetEmptyCellFunc // optional
	NoAddingPlanesDuringSimulation bool
	// LatInit is invoked once at construction to seed initial planes.
	// If nil, defaults to adding exactly one plane.
	LatInit func(l *Lattice)
}

// Lattice is the 3-D array of per-cell int/float slots described by
// spec §3/§4.D.
type Lattice struct {
	globalW, globalH int
	local            cellgrid.Bbox
	gx, gy           int
	nInt, nFloat     int
	decomp           DecompKind
	numSectors       int

	stride int // width of one plane row including ghost border
	rows   int // number of plane rows including ghost border

	planes []*plane

	setEmptyCellVals SetEmptyCellFunc
	noAddDuringSim   bool
	running          bool

	track        TrackType
	dirty        bool
	changedSet   *orderedCellSet
	otherList    *orderedCellSet
	exportBuffer []*orderedCellSet // one per sector
}

// New builds a Lattice from p. Attaching a lattice with nInt==0 &&
// nFloat==0 is fatal (spec §4.D "Failure modes").
func New(p Params) *Lattice {
	kmcerr.ExitIf(p.NInt == 0 && p.NFloat == 0, "lattice: cannot attach a lattice with nInt==0 && nFloat==0")

	l := &Lattice{
		globalW: p.GlobalW, globalH: p.GlobalH,
		local: p.Local, gx: p.GhostX, gy: p.GhostY,
		nInt: p.NInt, nFloat: p.NFloat,
		decomp: p.Decomp, numSectors: p.Decomp.NumSectors(),
		setEmptyCellVals: p.SetEmptyCellVals,
		noAddDuringSim:   p.NoAddingPlanesDuringSimulation,
		track:            NONE,
		changedSet:       newOrderedCellSet(),
		otherList:        newOrderedCellSet(),
	}
	l.stride = p.Local.Width() + 2*p.GhostX
	l.rows = p.Local.Height() + 2*p.GhostY
	l.planes = make([]*plane, 0, p.NumPlanesToReserve)
	l.exportBuffer = make([]*orderedCellSet, l.numSectors)
	for s := range l.exportBuffer {
		l.exportBuffer[s] = newOrderedCellSet()
	}

	if p.LatInit != nil {
		p.LatInit(l)
	} else {
		l.AddPlanes(1)
	}
	return l
}

// MarkRunning is called by the driver once the run loop begins, so that
// AddPlanes can enforce NoAddingPlanesDuringSimulation.
func (l *Lattice) MarkRunning() { l.running = true }

// Height returns the current number of planes. Never decreases across
// AddPlanes calls (spec §8 property 7).
func (l *Lattice) Height() int { return len(l.planes) }

// SetTrackType selects the active change-log mode and clears any
// previously accumulated log state.
func (l *Lattice) SetTrackType(t TrackType) {
	l.track = t
	l.dirty = false
	l.changedSet.clear()
	l.otherList.clear()
}

// TrackType returns the currently active change-log mode.
func (l *Lattice) TrackType() TrackType { return l.track }

// Dirty reports whether any write has occurred since SetTrackType, for
// PresenceOnly/ChangedSet modes.
func (l *Lattice) Dirty() bool { return l.dirty }

// ChangedCells returns the ordered set of cells written to since
// SetTrackType(ChangedSet), sorted by (i,j,k) for reproducibility.
func (l *Lattice) ChangedCells() []cellgrid.CellInds { return l.changedSet.ordered() }

// OtherCells returns the ordered set of "other" cells reported by plane
// appends since SetTrackType(OtherOnly).
func (l *Lattice) OtherCells() []cellgrid.CellInds { return l.otherList.ordered() }

// index computes the flat plane-storage index for wrapped local
// coordinates (i,j) already known to lie in the owned+ghost extent.
func (l *Lattice) index(li, lj int) int {
	return (lj+l.gy)*l.stride + (li + l.gx)
}

// resolve maps a possibly-unwrapped, possibly-global CellInds to local
// plane-storage coordinates and reports whether the result is this
// partition's own cell (false) or a ghost replica (true).
//
// In Compact decomposition cells are never wrapped at access time
// (ghost halos already contain all boundary data); in Row decomposition
// only the non-partitioned axis wraps (spec §4.D "Periodic wrap").
func (l *Lattice) resolve(ci cellgrid.CellInds) (li, lj int, isGhost IsGhost) {
	i, j := ci.I, ci.J
	switch l.decomp {
	case Compact:
		// no wrap; caller is expected to pass coordinates already
		// within [local.IMin-gx, local.IMax+gx] etc.
	case Row:
		// J (non-partitioned axis) always wraps; I (the partitioned
		// axis) only wraps once fully outside ghost reach.
		j = wrapAxis(j, l.globalH)
		i = wrapRowAxis(i, l.local, l.gx, l.globalW)
	default: // Serial
		i, j = cellgrid.Wrap(i, j, l.globalW, l.globalH)
	}

	li = i - l.local.IMin
	lj = j - l.local.JMin
	owned := li >= 0 && li < l.local.Width() && lj >= 0 && lj < l.local.Height()
	return li, lj, IsGhost(!owned)
}

// wrapRowAxis wraps the partitioned axis of a Row decomposition only
// when it falls entirely outside any partition's ghost reach, which in
// a single-partition test configuration is the entire global extent.
func wrapRowAxis(i int, local cellgrid.Bbox, gx, globalW int) int {
	if i >= local.IMin-gx && i <= local.IMax+gx {
		return i
	}
	return wrapAxis(i, globalW)
}

func wrapAxis(v, dim int) int {
	wrapped, _ := cellgrid.Wrap(v, 0, dim, 1)
	return wrapped
}

func (l *Lattice) checkPlane(k int) {
	kmcerr.ExitIff(k < 0 || k >= len(l.planes), "lattice: plane index %d out of range [0,%d)", k, len(l.planes))
}

// GetInt reads an int slot, transparently applying horizontal wrap.
func (l *Lattice) GetInt(ci cellgrid.CellInds, which int) int32 {
	l.checkPlane(ci.K)
	li, lj, _ := l.resolve(ci)
	return l.planes[ci.K].cells[l.index(li, lj)].Ints[which]
}

// GetFloat reads a float slot, transparently applying horizontal wrap.
func (l *Lattice) GetFloat(ci cellgrid.CellInds, which int) float64 {
	l.checkPlane(ci.K)
	li, lj, _ := l.resolve(ci)
	return l.planes[ci.K].cells[l.index(li, lj)].Floats[which]
}

// SetInt writes an int slot, applying wrap, and records the write in
// the active change log.
func (l *Lattice) SetInt(ci cellgrid.CellInds, which int, val int32) {
	l.checkPlane(ci.K)
	li, lj, _ := l.resolve(ci)
	l.planes[ci.K].cells[l.index(li, lj)].Ints[which] = val
	l.recordWrite(ci)
}

// SetFloat writes a float slot, applying wrap, and records the write in
// the active change log.
func (l *Lattice) SetFloat(ci cellgrid.CellInds, which int, val float64) {
	l.checkPlane(ci.K)
	li, lj, _ := l.resolve(ci)
	l.planes[ci.K].cells[l.index(li, lj)].Floats[which] = val
	l.recordWrite(ci)
}

func (l *Lattice) recordWrite(ci cellgrid.CellInds) {
	l.AddToExportBufferIfNeeded(ci)
	switch l.track {
	case NONE:
	case PresenceOnly:
		l.dirty = true
	case ChangedSet:
		l.dirty = true
		wi, wj := cellgrid.Wrap(ci.I, ci.J, l.globalW, l.globalH)
		l.changedSet.add(cellgrid.CellInds{I: wi, J: wj, K: ci.K})
	case OtherOnly:
		// individual writes are not tracked in this mode
	}
}

// AddPlanes appends n planes, each initialized to zero or, if
// SetEmptyCellVals is configured, by invoking it for every cell in the
// owned rectangle including ghosts (spec §4.D).
//
// Fatal if called while running and NoAddingPlanesDuringSimulation is
// set (spec §4.D "Failure modes").
func (l *Lattice) AddPlanes(n int) {
	kmcerr.ExitIff(l.running && l.noAddDuringSim, "lattice: add_planes called during simulation when noAddingPlanesDuringSimulation=true")

	for i := 0; i < n; i++ {
		k := len(l.planes)
		p := newPlane(l.stride, l.rows, l.nInt, l.nFloat)
		if l.setEmptyCellVals != nil {
			for lj := 0; lj < l.rows; lj++ {
				for li := 0; li < l.stride; li++ {
					gi := li - l.gx + l.local.IMin
					gj := lj - l.gy + l.local.JMin
					ci := cellgrid.CellInds{I: gi, J: gj, K: k}
					l.setEmptyCellVals(ci, &p.cells[l.index(gi-l.local.IMin, gj-l.local.JMin)])
				}
			}
		}
		l.planes = append(l.planes, p)

		if l.track == OtherOnly {
			l.dirty = true
			for lj := 0; lj < l.local.Height(); lj++ {
				for li := 0; li < l.local.Width(); li++ {
					l.otherList.add(cellgrid.CellInds{I: li + l.local.IMin, J: lj + l.local.JMin, K: k})
				}
			}
		}
	}
}

// GetLocalPlanarBbox returns this partition's owned rectangle, with the
// ghost border included when withGhost is true.
func (l *Lattice) GetLocalPlanarBbox(withGhost bool) cellgrid.Bbox {
	if !withGhost {
		return l.local
	}
	return cellgrid.Bbox{
		IMin: l.local.IMin - l.gx, IMax: l.local.IMax + l.gx,
		JMin: l.local.JMin - l.gy, JMax: l.local.JMax + l.gy,
	}
}

// GetGlobalPlanarBbox returns the full global horizontal extent.
func (l *Lattice) GetGlobalPlanarBbox() cellgrid.Bbox {
	return cellgrid.Bbox{IMin: 0, IMax: l.globalW - 1, JMin: 0, JMax: l.globalH - 1}
}

// GetSectorPlanarBbox returns the bounding rectangle of sector s within
// the owned (non-ghost) rectangle.
func (l *Lattice) GetSectorPlanarBbox(s int) cellgrid.Bbox {
	return sectorBbox(l.local, l.decomp, s)
}

// SectorOf returns the sector a non-ghost global cell belongs to.
func (l *Lattice) SectorOf(ci cellgrid.CellInds) int {
	return sectorOf(l.local, l.decomp, ci.I, ci.J)
}

// NumSectors returns the number of sectors this lattice's decomposition uses.
func (l *Lattice) NumSectors() int { return l.numSectors }

// NInt and NFloat report the per-cell slot counts.
func (l *Lattice) NInt() int   { return l.nInt }
func (l *Lattice) NFloat() int { return l.nFloat }

// GlobalDims reports (W,H).
func (l *Lattice) GlobalDims() (int, int) { return l.globalW, l.globalH }

// AddToExportBufferIfNeeded informs the lattice that ci has been
// touched and must be propagated to any sector/partition whose ghost
// halo covers it. No-op in Serial mode. Returns whether ci itself is a
// ghost (spec §4.D).
func (l *Lattice) AddToExportBufferIfNeeded(ci cellgrid.CellInds) IsGhost {
	if l.decomp == Serial {
		return false
	}
	_, _, isGhost := l.resolve(ci)
	if isGhost {
		return true
	}
	li := ci.I - l.local.IMin
	lj := ci.J - l.local.JMin
	dir := exportDirOf(li, lj, l.local.Width(), l.local.Height(), l.gx, l.gy)
	if dir == ExportNone {
		return false
	}
	s := sectorOf(l.local, l.decomp, ci.I, ci.J)
	l.exportBuffer[s].add(ci)
	return false
}
