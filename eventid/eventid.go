// Package eventid implements the compact EventId encoding (spec §4.B) and
// the dense two-level EventIdMap index keyed by it (spec §4.C).
package eventid

import (
	"fmt"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
)

// IdCtx holds the flattening constants spec §4.B calls "process-wide":
// the local horizontal bounding box's dimensions, the number of registered
// cell-centered event kinds, and the local bounding box's minimum
// corner. Per the design notes, these are threaded explicitly rather
// than stored as mutable globals; exactly one IdCtx is created during a
// Simulation's first-run preamble and reused for the run's lifetime
// (spec §5: "may not be reconfigured afterwards").
type IdCtx struct {
	W, H     int // dims of the local horizontal bounding box
	NumKinds int // number of registered cell-centered event kinds
	IMin     int
	JMin     int
}

// EventId is one of two disjoint encodings (spec §4.B):
//   - over-lattice: E2 < 0, encodes (overLatticeIndex, sector)
//   - cell-centered: E2 >= 0, encodes (cell, kind) via flattened E1 and K=E2
//
// EventId is comparable and usable directly as a Go map key; Go's
// built-in struct equality/hashing over comparable fields supplies the
// "componentwise equality and hash" spec §4.B asks for, so no custom
// hash function is implemented (unlike the boost::hash_combine the
// original C++ used).
type EventId struct {
	E1, E2 int
}

// OverLattice builds the id for over-lattice event index idx in sector
// sect. sect must be >= 0.
func OverLattice(idx, sect int) EventId {
	return EventId{E1: idx, E2: -(sect + 1)}
}

// CellCentered builds the id for the kind-th cell-centered
// event kind anchored at ci, using ctx's flattening constants.
func CellCentered(ctx IdCtx, ci cellgrid.CellInds, kind int) EventId {
	e1 := (ci.I - ctx.IMin) + ctx.W*((ci.J-ctx.JMin)+ctx.H*kind)
	return EventId{E1: e1, E2: ci.K}
}

// IsOverLattice reports which of the two encodings e holds.
func (e EventId) IsOverLattice() bool { return e.E2 < 0 }

// OverLatticeInfo decodes an over-lattice id. Precondition: IsOverLattice().
func (e EventId) OverLatticeInfo() (idx, sect int) {
	return e.E1, -(e.E2 + 1)
}

// CellCenteredInfo decodes a cell-centered id. Precondition: !IsOverLattice().
func (e EventId) CellCenteredInfo(ctx IdCtx) (ci cellgrid.CellInds, kind int) {
	r0 := e.E1 / ctx.W
	r1 := r0 / ctx.H

	i := e.E1 - ctx.W*r0 + ctx.IMin
	j := r0 - ctx.H*r1 + ctx.JMin
	kind = r1
	return cellgrid.CellInds{I: i, J: j, K: e.E2}, kind
}

// Less gives the stable total order (E1, then E2) spec §3 requires of
// cell-id containers so that reconciliation order is reproducible.
func (e EventId) Less(other EventId) bool {
	return e.E1 < other.E1 || (e.E1 == other.E1 && e.E2 < other.E2)
}

func (e EventId) String() string {
	if e.IsOverLattice() {
		idx, sect := e.OverLatticeInfo()
		return fmt.Sprintf("OverLatticeEvent(sector=%d; index=%d)", sect, idx)
	}
	return fmt.Sprintf("CellCenteredEvent(e1=%d; k=%d)", e.E1, e.E2)
}
