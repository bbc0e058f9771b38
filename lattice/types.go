package lattice

import "github.com/jjramsey/kmcthinfilm-go/cellgrid"

// TrackType selects the change-log mode active for the duration of a
// callback (spec §3 "Change log").
type TrackType int

const (
	// NONE performs direct writes with no bookkeeping.
	NONE TrackType = iota
	// PresenceOnly sets a dirty flag on any write.
	PresenceOnly
	// ChangedSet accumulates the ordered set of changed cells, in
	// addition to the dirty flag.
	ChangedSet
	// OtherOnly tracks "other" cells reported by plane appends, not
	// individual writes.
	OtherOnly
)

// DecompKind selects the spatial partitioning scheme (spec §3 "Sectors").
type DecompKind int

const (
	// Serial is the single-partition, no-ghost, one-sector case.
	Serial DecompKind = iota
	// Row is 1-D row decomposition: 2 sectors, ghosts and partitioning
	// along I only; J wraps at access.
	Row
	// Compact is 2-D decomposition: 4 sectors (quadrants), ghosts and
	// partitioning along both I and J; neither wraps at access.
	Compact
)

// NumSectors returns how many sectors a decomposition kind uses.
func (d DecompKind) NumSectors() int {
	switch d {
	case Serial:
		return 1
	case Row:
		return 2
	case Compact:
		return 4
	default:
		return 1
	}
}

// ExportDir is a bitmask of the boundary-buffer directions a cell
// belongs to. A cell near a corner of the owned rectangle can belong to
// up to 3 buffers at once (a row buffer, a column buffer, and a corner
// buffer) per spec §4.G.iii.
type ExportDir uint8

const (
	ExportNone ExportDir = 0
	ExportN    ExportDir = 1 << (iota - 1)
	ExportS
	ExportE
	ExportW
	ExportNE
	ExportNW
	ExportSE
	ExportSW
)

// IsGhost reports whether a queried cell resolved to a ghost replica
// rather than a locally owned cell (the return value of
// add_to_export_buffer_if_needed per spec §4.D).
type IsGhost bool

// Cell is one lattice site's storage: nInt int32 slots and nFloat
// float64 slots. Both may be zero but not both (spec §3).
type Cell struct {
	Ints   []int32
	Floats []float64
}

func newCell(nInt, nFloat int) Cell {
	c := Cell{}
	if nInt > 0 {
		c.Ints = make([]int32, nInt)
	}
	if nFloat > 0 {
		c.Floats = make([]float64, nFloat)
	}
	return c
}

// SetEmptyCellFunc initializes a newly appended plane's cell, invoked
// once per cell (including ghosts) so that ghost cells start valid
// (spec §4.D "add_planes").
type SetEmptyCellFunc func(ci cellgrid.CellInds, c *Cell)
