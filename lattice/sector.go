package lattice

import "github.com/jjramsey/kmcthinfilm-go/cellgrid"

// sectorBbox splits the owned rectangle local into the fixed number of
// sectors a decomposition kind uses (spec §3 "Sectors"):
//   - Serial: the whole rectangle is sector 0.
//   - Row: split along I (the partitioned axis) into two halves, which
//     is the axis across which ghost exchange happens in this
//     decomposition; J always wraps within a sector.
//   - Compact: split into 4 quadrants along both I and J.
func sectorBbox(local cellgrid.Bbox, decomp DecompKind, s int) cellgrid.Bbox {
	switch decomp {
	case Row:
		midI := local.IMin + local.Width()/2
		if s == 0 {
			return cellgrid.Bbox{IMin: local.IMin, IMax: midI - 1, JMin: local.JMin, JMax: local.JMax}
		}
		return cellgrid.Bbox{IMin: midI, IMax: local.IMax, JMin: local.JMin, JMax: local.JMax}
	case Compact:
		midI := local.IMin + local.Width()/2
		midJ := local.JMin + local.Height()/2
		lowI, lowJ := (s&1) == 0, (s&2) == 0
		b := local
		if lowI {
			b.IMax = midI - 1
		} else {
			b.IMin = midI
		}
		if lowJ {
			b.JMax = midJ - 1
		} else {
			b.JMin = midJ
		}
		return b
	default: // Serial
		return local
	}
}

// sectorOf returns the sector index a non-ghost global cell (i,j)
// belongs to.
func sectorOf(local cellgrid.Bbox, decomp DecompKind, i, j int) int {
	switch decomp {
	case Row:
		midI := local.IMin + local.Width()/2
		if i < midI {
			return 0
		}
		return 1
	case Compact:
		midI := local.IMin + local.Width()/2
		midJ := local.JMin + local.Height()/2
		sector := 0
		if i >= midI {
			sector |= 1
		}
		if j >= midJ {
			sector |= 2
		}
		return sector
	default:
		return 0
	}
}

// exportDirOf computes the ExportDir bitmask for a local (non-ghost)
// cell at offset (li,lj) within a rectangle of the given width/height,
// given ghost extents gx,gy. A cell within ghost reach of two adjacent
// edges also sets the corresponding corner bit, giving up to 3 total
// memberships (spec §4.G.iii).
func exportDirOf(li, lj, width, height, gx, gy int) ExportDir {
	var dir ExportDir
	west := gx > 0 && li < gx
	east := gx > 0 && li >= width-gx
	south := gy > 0 && lj < gy
	north := gy > 0 && lj >= height-gy

	if west {
		dir |= ExportW
	}
	if east {
		dir |= ExportE
	}
	if south {
		dir |= ExportS
	}
	if north {
		dir |= ExportN
	}
	switch {
	case north && east:
		dir |= ExportNE
	case north && west:
		dir |= ExportNW
	case south && east:
		dir |= ExportSE
	case south && west:
		dir |= ExportSW
	}
	return dir
}
