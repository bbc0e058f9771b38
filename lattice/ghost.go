package lattice

import "github.com/jjramsey/kmcthinfilm-go/cellgrid"

// GhostCellValue is one cell's payload as exchanged between partitions.
// CI is in the sender's global coordinate system; the transport passes
// it through unchanged, and the receiver's ApplyGhostValues maps it into
// its own ghost border (spec §6 "Wire protocol": "Exact byte layout is
// implementation-defined").
type GhostCellValue struct {
	CI     cellgrid.CellInds
	Ints   []int32
	Floats []float64
}

// BoundaryCellsFull returns every owned cell across every plane whose
// ExportDir is non-zero for sector s's half/quadrant of the owned
// rectangle — the cells a full ghost refresh must send (spec §4.D
// "recv_ghosts(s)/send_ghosts(s)").
func (l *Lattice) BoundaryCellsFull(s int) []cellgrid.CellInds {
	b := l.GetSectorPlanarBbox(s)
	var out []cellgrid.CellInds
	for k := 0; k < len(l.planes); k++ {
		for j := b.JMin; j <= b.JMax; j++ {
			for i := b.IMin; i <= b.IMax; i++ {
				li, lj := i-l.local.IMin, j-l.local.JMin
				if exportDirOf(li, lj, l.local.Width(), l.local.Height(), l.gx, l.gy) != ExportNone {
					out = append(out, cellgrid.CellInds{I: i, J: j, K: k})
				}
			}
		}
	}
	return out
}

// BoundaryCellsSparse returns the cells previously marked via
// AddToExportBufferIfNeeded for sector s since the last clear, i.e. the
// cells a sparse ghost refresh must send (spec §4.D
// "recv_ghosts_update(s)/send_ghosts_update(s)"), or nil when none are
// marked.
func (l *Lattice) BoundaryCellsSparse(s int) []cellgrid.CellInds {
	if l.exportBuffer[s].len() == 0 {
		return nil
	}
	return l.exportBuffer[s].ordered()
}

// ClearExportBuffer empties sector s's sparse export buffer, done after
// a successful send_ghosts_update per spec §9's open-question note.
func (l *Lattice) ClearExportBuffer(s int) {
	l.exportBuffer[s].clear()
}

// GatherCellValues reads the current Ints/Floats for each of cells,
// producing the payload a transport sends to a neighbor.
func (l *Lattice) GatherCellValues(cells []cellgrid.CellInds) []GhostCellValue {
	out := make([]GhostCellValue, len(cells))
	for idx, ci := range cells {
		li, lj, _ := l.resolve(ci)
		src := l.planes[ci.K].cells[l.index(li, lj)]
		out[idx] = GhostCellValue{
			CI:     ci,
			Ints:   append([]int32(nil), src.Ints...),
			Floats: append([]float64(nil), src.Floats...),
		}
	}
	return out
}

// ApplyGhostValues writes received payloads directly into this
// partition's ghost border, bypassing the change log: a ghost write is
// never itself a propensity-affecting local event, so it must not
// appear in ChangedCells/OtherCells. Returns the (wrapped) cell
// coordinates written, for use by the caller's reconciliation step.
func (l *Lattice) ApplyGhostValues(values []GhostCellValue) []cellgrid.CellInds {
	out := make([]cellgrid.CellInds, len(values))
	for idx, v := range values {
		li, lj, _ := l.resolve(v.CI)
		dst := &l.planes[v.CI.K].cells[l.index(li, lj)]
		copy(dst.Ints, v.Ints)
		copy(dst.Floats, v.Floats)
		wi, wj := cellgrid.Wrap(v.CI.I, v.CI.J, l.globalW, l.globalH)
		out[idx] = cellgrid.CellInds{I: wi, J: wj, K: v.CI.K}
	}
	return out
}
