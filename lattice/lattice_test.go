package lattice

import (
	"testing"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
)

func serialParams(w, h, nInt, nFloat int) Params {
	return Params{
		GlobalW: w, GlobalH: h,
		Local:  cellgrid.Bbox{IMin: 0, IMax: w - 1, JMin: 0, JMax: h - 1},
		GhostX: 0, GhostY: 0,
		NInt: nInt, NFloat: nFloat,
		NumPlanesToReserve: 4,
		Decomp:             Serial,
	}
}

func TestNewFatalOnEmptyCellShape(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nInt==0 && nFloat==0")
		}
	}()
	New(serialParams(4, 4, 0, 0))
}

// TestLatticeWrap is spec §8 property 6.
func TestLatticeWrap(t *testing.T) {
	l := New(serialParams(10, 10, 1, 0))
	l.SetInt(cellgrid.CellInds{I: 3, J: 4, K: 0}, 0, 99)

	for _, ci := range []cellgrid.CellInds{
		{I: 3, J: 4, K: 0},
		{I: 13, J: 4, K: 0},
		{I: -7, J: 4, K: 0},
		{I: 3, J: -6, K: 0},
	} {
		if got := l.GetInt(ci, 0); got != 99 {
			t.Errorf("GetInt(%v) = %d, want 99", ci, got)
		}
	}
}

func TestHeightMonotonicity(t *testing.T) {
	l := New(serialParams(4, 4, 1, 0))
	if l.Height() != 1 {
		t.Fatalf("Height() = %d after construction, want 1", l.Height())
	}
	l.AddPlanes(3)
	if l.Height() != 4 {
		t.Fatalf("Height() = %d, want 4", l.Height())
	}
}

func TestAddPlanesInvokesSetEmptyCellVals(t *testing.T) {
	calls := 0
	p := serialParams(4, 4, 1, 0)
	p.SetEmptyCellVals = func(ci cellgrid.CellInds, c *Cell) {
		calls++
		c.Ints[0] = int32(ci.I + ci.J)
	}
	l := New(p)
	if calls != 16 {
		t.Fatalf("SetEmptyCellVals called %d times, want 16", calls)
	}
	if got := l.GetInt(cellgrid.CellInds{I: 2, J: 3, K: 0}, 0); got != 5 {
		t.Fatalf("GetInt = %d, want 5", got)
	}
}

func TestAddPlanesFatalDuringSimWhenDisallowed(t *testing.T) {
	p := serialParams(4, 4, 1, 0)
	p.NoAddingPlanesDuringSimulation = true
	l := New(p)
	l.MarkRunning()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	l.AddPlanes(1)
}

func TestChangedSetTracksWritesOrdered(t *testing.T) {
	l := New(serialParams(4, 4, 1, 0))
	l.SetTrackType(ChangedSet)
	l.SetInt(cellgrid.CellInds{I: 2, J: 2, K: 0}, 0, 1)
	l.SetInt(cellgrid.CellInds{I: 0, J: 0, K: 0}, 0, 1)
	l.SetInt(cellgrid.CellInds{I: 2, J: 2, K: 0}, 0, 2) // duplicate

	if !l.Dirty() {
		t.Fatal("expected dirty flag set")
	}
	got := l.ChangedCells()
	want := []cellgrid.CellInds{{I: 0, J: 0, K: 0}, {I: 2, J: 2, K: 0}}
	if len(got) != len(want) {
		t.Fatalf("ChangedCells = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ChangedCells[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPresenceOnlyDoesNotTrackCells(t *testing.T) {
	l := New(serialParams(4, 4, 1, 0))
	l.SetTrackType(PresenceOnly)
	l.SetInt(cellgrid.CellInds{I: 1, J: 1, K: 0}, 0, 5)
	if !l.Dirty() {
		t.Fatal("expected dirty")
	}
	if len(l.ChangedCells()) != 0 {
		t.Fatal("PresenceOnly should not populate the changed set")
	}
}

func TestBboxQueries(t *testing.T) {
	p := Params{
		GlobalW: 16, GlobalH: 16,
		Local:  cellgrid.Bbox{IMin: 4, IMax: 11, JMin: 4, JMax: 11},
		GhostX: 2, GhostY: 2,
		NInt: 1, Decomp: Compact,
	}
	l := New(p)
	local := l.GetLocalPlanarBbox(false)
	if local != p.Local {
		t.Fatalf("local bbox = %+v, want %+v", local, p.Local)
	}
	withGhost := l.GetLocalPlanarBbox(true)
	if withGhost.IMin != 2 || withGhost.IMax != 13 {
		t.Fatalf("with-ghost bbox = %+v", withGhost)
	}
	global := l.GetGlobalPlanarBbox()
	if global.Width() != 16 || global.Height() != 16 {
		t.Fatalf("global bbox = %+v", global)
	}
	if l.NumSectors() != 4 {
		t.Fatalf("NumSectors = %d, want 4", l.NumSectors())
	}
}

func TestSectorAssignmentPartitionsOwnedRectangle(t *testing.T) {
	local := cellgrid.Bbox{IMin: 0, IMax: 7, JMin: 0, JMax: 7}
	seen := make(map[int]int)
	for i := local.IMin; i <= local.IMax; i++ {
		for j := local.JMin; j <= local.JMax; j++ {
			seen[sectorOf(local, Compact, i, j)]++
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct sectors, got %d", len(seen))
	}
	for s, count := range seen {
		if count != 16 {
			t.Errorf("sector %d has %d cells, want 16", s, count)
		}
	}
}

func TestAddToExportBufferIfNeededSerialIsNoop(t *testing.T) {
	l := New(serialParams(8, 8, 1, 0))
	if isGhost := l.AddToExportBufferIfNeeded(cellgrid.CellInds{I: 0, J: 0, K: 0}); isGhost != false {
		t.Fatal("serial mode should never report ghost")
	}
	if l.BoundaryCellsSparse(0) != nil {
		t.Fatal("serial mode should not populate export buffers")
	}
}

func TestExportDirCorner(t *testing.T) {
	// 8x8 owned rect, ghost extent 2: corner cell (0,0) local should hit W,S,SW.
	dir := exportDirOf(0, 0, 8, 8, 2, 2)
	want := ExportW | ExportS | ExportSW
	if dir != want {
		t.Fatalf("exportDirOf corner = %v, want %v", dir, want)
	}
	interior := exportDirOf(4, 4, 8, 8, 2, 2)
	if interior != ExportNone {
		t.Fatalf("interior cell should have no export dir, got %v", interior)
	}
}

func TestGhostExchangeRoundtrip(t *testing.T) {
	pA := Params{GlobalW: 8, GlobalH: 8, Local: cellgrid.Bbox{IMin: 0, IMax: 3, JMin: 0, JMax: 7}, GhostX: 1, GhostY: 0, NInt: 1, Decomp: Row}
	pB := Params{GlobalW: 8, GlobalH: 8, Local: cellgrid.Bbox{IMin: 4, IMax: 7, JMin: 0, JMax: 7}, GhostX: 1, GhostY: 0, NInt: 1, Decomp: Row}
	a := New(pA)
	b := New(pB)

	a.SetInt(cellgrid.CellInds{I: 3, J: 5, K: 0}, 0, 42)
	payload := a.GatherCellValues([]cellgrid.CellInds{{I: 3, J: 5, K: 0}})
	b.ApplyGhostValues(payload)

	if got := b.GetInt(cellgrid.CellInds{I: 3, J: 5, K: 0}, 0); got != 42 {
		t.Fatalf("ghost value = %d, want 42", got)
	}
}
