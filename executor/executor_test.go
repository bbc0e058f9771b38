package executor

import (
	"testing"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
	"github.com/jjramsey/kmcthinfilm-go/simstate"
)

func newTestLattice() *lattice.Lattice {
	return lattice.New(lattice.Params{
		GlobalW: 8, GlobalH: 8,
		Local: cellgrid.Bbox{IMin: 0, IMax: 7, JMin: 0, JMax: 7},
		NInt:  2, Decomp: lattice.Serial,
	})
}

func TestCellsToChangeRoutesThroughOffsets(t *testing.T) {
	lat := newTestLattice()
	group := ChangeOffsetGroup{{DI: 0, DJ: 0, DK: 0}, {DI: 1, DJ: 0, DK: 0}}
	ctc := newCellsToChange(group, lat)
	ctc.SetCenter(cellgrid.CellInds{I: 2, J: 2, K: 0})
	ctc.SetInt(0, 0, 5)
	ctc.SetInt(1, 0, 7)

	if got := lat.GetInt(cellgrid.CellInds{I: 2, J: 2, K: 0}, 0); got != 5 {
		t.Fatalf("center write = %d, want 5", got)
	}
	if got := lat.GetInt(cellgrid.CellInds{I: 3, J: 2, K: 0}, 0); got != 7 {
		t.Fatalf("offset write = %d, want 7", got)
	}
}

func TestCellsToChangeCenterBeforeSet(t *testing.T) {
	ctc := newCellsToChange(ChangeOffsetGroup{{}}, newTestLattice())
	if _, ok := ctc.Center(); ok {
		t.Fatal("expected no center before SetCenter")
	}
	ctc.SetCenter(cellgrid.CellInds{I: 1, J: 1, K: 0})
	ci, ok := ctc.Center()
	if !ok || ci != (cellgrid.CellInds{I: 1, J: 1, K: 0}) {
		t.Fatalf("Center() = %v, %v", ci, ok)
	}
}

func TestEventKindNewCellsToChangeSliceOnePerGroup(t *testing.T) {
	ek := EventKind{
		Kind: SemiManual,
		ChangeOffsetGroups: []ChangeOffsetGroup{
			{{DI: 0, DJ: 0, DK: 0}},
			{{DI: -1, DJ: 0, DK: 0}, {DI: 1, DJ: 0, DK: 0}},
		},
	}
	lat := newTestLattice()
	slice := ek.NewCellsToChangeSlice(lat)
	if len(slice) != 2 {
		t.Fatalf("len(slice) = %d, want 2", len(slice))
	}
	if len(slice[1].Offsets()) != 2 {
		t.Fatalf("slice[1] has %d offsets, want 2", len(slice[1].Offsets()))
	}
}

func TestGroupPropensitiesSharedAcrossKinds(t *testing.T) {
	lat := newTestLattice()
	calls := 0
	g := Group{
		Propensities: func(ci cellgrid.CellInds, l *lattice.Lattice) []float64 {
			calls++
			return []float64{1.0, 2.0, 3.0}
		},
		Kinds: []EventKind{{Kind: AutoTrack}, {Kind: AutoTrack}, {Kind: AutoTrack}},
	}
	if g.NumKinds() != 3 {
		t.Fatalf("NumKinds = %d, want 3", g.NumKinds())
	}
	props := g.Propensities(cellgrid.CellInds{I: 0, J: 0, K: 0}, lat)
	if calls != 1 || len(props) != 3 {
		t.Fatalf("expected one call returning 3 propensities, got %d calls, %d props", calls, len(props))
	}
}

func TestAutoTrackFuncInvokedWithState(t *testing.T) {
	lat := newTestLattice()
	var fired bool
	fn := AutoTrackFunc(func(ci cellgrid.CellInds, state *simstate.State, l *lattice.Lattice) {
		fired = true
		l.SetInt(ci, 0, 1)
	})
	fn(cellgrid.CellInds{I: 0, J: 0, K: 0}, &simstate.State{}, lat)
	if !fired {
		t.Fatal("expected AutoTrackFunc to run")
	}
	if got := lat.GetInt(cellgrid.CellInds{I: 0, J: 0, K: 0}, 0); got != 1 {
		t.Fatalf("GetInt = %d, want 1", got)
	}
}

func TestOverLatticeEventFields(t *testing.T) {
	lat := newTestLattice()
	fired := false
	ev := OverLatticeEvent{
		RatePerArea: 0.5,
		Execute: func(ci cellgrid.CellInds, state *simstate.State, l *lattice.Lattice) {
			fired = true
		},
	}
	if fired {
		t.Fatal("Execute should not run merely by constructing the struct")
	}
	ev.Execute(cellgrid.CellInds{I: 0, J: 0, K: 0}, &simstate.State{}, lat)
	if !fired {
		t.Fatal("expected Execute to run when called")
	}
}
