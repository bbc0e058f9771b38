package timeincr

import (
	"math"
	"testing"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/eventid"
	"github.com/jjramsey/kmcthinfilm-go/solver"
)

func TestParamOrDefaultAndIfAvailable(t *testing.T) {
	p := NewParams(MaxAvgPropensityPerPossEvent)
	if _, ok := p.ParamIfAvailable(NStop); ok {
		t.Fatal("expected NStop unset")
	}
	if got := p.ParamOrDefault(NStop, 2.5); got != 2.5 {
		t.Fatalf("ParamOrDefault = %v, want 2.5", got)
	}
	p.SetParam(NStop, 4.0)
	v, ok := p.ParamIfAvailable(NStop)
	if !ok || v != 4.0 {
		t.Fatalf("ParamIfAvailable = %v, %v; want 4.0, true", v, ok)
	}
}

func TestParamOrDiePanicsWhenUnset(t *testing.T) {
	p := NewParams(FixedValue)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unset TSTOP")
		}
	}()
	p.TStop(0)
}

func TestFixedValueSchemeIgnoresReducedQuantity(t *testing.T) {
	p := NewParams(FixedValue)
	p.SetParam(TStop, 0.01)
	if got := p.TStop(999); got != 0.01 {
		t.Fatalf("TStop = %v, want 0.01", got)
	}
	if p.IsAdaptive() {
		t.Fatal("FixedValue should not be adaptive")
	}
}

func TestAdaptiveSchemeAppliesNStopAndCap(t *testing.T) {
	p := NewParams(MaxSinglePropensity)
	p.SetParam(NStop, 2.0)
	if got, want := p.TStop(4.0), 0.5; got != want {
		t.Fatalf("TStop = %v, want %v", got, want)
	}

	p.SetParam(TStopMax, 0.1)
	if got, want := p.TStop(4.0), 0.1; got != want {
		t.Fatalf("TStop with cap = %v, want %v", got, want)
	}
	if !p.IsAdaptive() {
		t.Fatal("MaxSinglePropensity should be adaptive")
	}
}

func TestTStopFallsBackToCapWhenNoPropensity(t *testing.T) {
	p := NewParams(MaxAvgPropensityPerPossEvent)
	p.SetParam(TStopMax, 5.0)
	if got, want := p.TStop(0), 5.0; got != want {
		t.Fatalf("TStop = %v, want %v", got, want)
	}
}

func TestLocalDriverQuantityReadsSolverAcrossSectors(t *testing.T) {
	ctx := eventid.IdCtx{W: 4, H: 4, NumKinds: 1}
	s := solver.NewSchulzeSolver(ctx, 2)
	s.BeginBuildingEventList(0, 1)
	s.AddCellCenteredEntry(eventid.CellCentered(ctx, cellgrid.CellInds{I: 0, J: 0, K: 0}, 0), 1.0, 0)
	s.AddCellCenteredEntry(eventid.CellCentered(ctx, cellgrid.CellInds{I: 1, J: 0, K: 0}, 0), 5.0, 1)
	s.EndBuildingEventList()

	p := NewParams(MaxSinglePropensity)
	if got := p.LocalDriverQuantity(s, 2); got != 5.0 {
		t.Fatalf("LocalDriverQuantity = %v, want 5.0", got)
	}

	if got := NewParams(FixedValue).LocalDriverQuantity(s, 2); got != 0 {
		t.Fatalf("FixedValue LocalDriverQuantity = %v, want 0", got)
	}

	_ = math.MaxFloat64
}
