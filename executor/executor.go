// Package executor implements the two event-callback contracts from spec
// §4.E: "auto-track" (the executor mutates the lattice freely and the
// driver discovers affected cells from the change log) and "semi-manual
// track" (the executor declares exactly which cells it touches, which
// parallel mode requires for correctness since only declared offsets can
// be mapped to ghost export buffers).
//
// Per the design notes, this is modeled as a sum type with a kind tag
// rather than an inheritance hierarchy.
package executor

import (
	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
	"github.com/jjramsey/kmcthinfilm-go/simstate"
)

// AutoTrackFunc executes an event at ci. It may call Lattice.SetInt/
// SetFloat/AddPlanes freely; the driver has pre-installed ChangedSet
// tracking and reconciles from the resulting change log afterward.
type AutoTrackFunc func(ci cellgrid.CellInds, state *simstate.State, lat *lattice.Lattice)

// SemiManualFunc executes an event at ci. It declares the cells it
// changes by calling SetCenter on each element of changes, then issues
// SetInt/SetFloat against that element's pre-registered offsets.
type SemiManualFunc func(ci cellgrid.CellInds, state *simstate.State, lat *lattice.Lattice, changes []*CellsToChange)

// ChangeOffsetGroup is the fixed set of offsets, relative to one
// declared center, that an event kind may write to. An event kind with
// multiple disjoint "centers" (e.g. it touches two unrelated
// neighborhoods) registers one group per center.
type ChangeOffsetGroup []cellgrid.Offset

// CellsToChange routes one declared center's writes to the lattice. Per
// the design notes, its lifetime is a short-lived borrow the driver
// creates fresh for each event execution and discards afterward; no
// reference to it or to the Lattice it wraps may escape the call.
type CellsToChange struct {
	offsets ChangeOffsetGroup
	center  cellgrid.CellInds
	hasCenter bool
	lat     *lattice.Lattice
}

func newCellsToChange(offsets ChangeOffsetGroup, lat *lattice.Lattice) *CellsToChange {
	return &CellsToChange{offsets: offsets, lat: lat}
}

// SetCenter declares the cell this instance's offsets are relative to
// for the event firing currently in progress.
func (c *CellsToChange) SetCenter(ci cellgrid.CellInds) {
	c.center = ci
	c.hasCenter = true
}

// Center returns the declared center. Only valid after SetCenter.
func (c *CellsToChange) Center() (cellgrid.CellInds, bool) { return c.center, c.hasCenter }

// SetInt writes to the cell at offsets[whichOffset] relative to the
// declared center.
func (c *CellsToChange) SetInt(whichOffset, which int, val int32) {
	c.lat.SetInt(c.center.Add(c.offsets[whichOffset]), which, val)
}

// SetFloat writes to the cell at offsets[whichOffset] relative to the
// declared center.
func (c *CellsToChange) SetFloat(whichOffset, which int, val float64) {
	c.lat.SetFloat(c.center.Add(c.offsets[whichOffset]), which, val)
}

// Offsets returns the registered offset group this instance routes
// writes through. The kmc driver does not read it: it reconciles a
// SemiManual event from the lattice's change log, the same way as an
// AutoTrack event, and computes no per-executor affected-cell offsets.
func (c *CellsToChange) Offsets() ChangeOffsetGroup { return c.offsets }

// Kind distinguishes the two executor contracts.
type Kind int

const (
	AutoTrack Kind = iota
	SemiManual
)

// EventKind is one registered cell-centered event within a Group: its
// execution contract plus (for SemiManual) the offset groups its
// CellsToChange instances are pre-wired to.
type EventKind struct {
	Kind               Kind
	Auto               AutoTrackFunc
	Semi               SemiManualFunc
	ChangeOffsetGroups []ChangeOffsetGroup // only meaningful when Kind == SemiManual
}

// NewCellsToChangeSlice builds the fresh, per-execution slice of
// CellsToChange a SemiManual EventKind's function is called with, one
// per registered offset group.
func (ek *EventKind) NewCellsToChangeSlice(lat *lattice.Lattice) []*CellsToChange {
	out := make([]*CellsToChange, len(ek.ChangeOffsetGroups))
	for i, g := range ek.ChangeOffsetGroups {
		out[i] = newCellsToChange(g, lat)
	}
	return out
}

// Group is an EventExecutorGroup (spec §4.E): K event kinds sharing one
// propensity function that computes all K propensities for a cell in
// one call (avoiding redundant neighbor probes), plus the set of
// lattice offsets that function reads — needed by the driver to compute
// reversed offsets during the preamble.
type Group struct {
	// Propensities computes the propensity of each of len(Kinds) event
	// kinds for cell ci.
	Propensities func(ci cellgrid.CellInds, lat *lattice.Lattice) []float64
	ReadOffsets  []cellgrid.Offset
	Kinds        []EventKind
}

// NumKinds returns how many event kinds this group registers.
func (g *Group) NumKinds() int { return len(g.Kinds) }

// OverLatticeEvent is a whole-sector event whose location is drawn
// uniformly over the sector's horizontal extent when it fires, with k
// set to height-1 (spec §4.E "Over-lattice events").
type OverLatticeEvent struct {
	// RatePerArea is the scalar rate per unit horizontal area; the
	// propensity contributed to a sector is RatePerArea * sector area.
	RatePerArea float64
	Execute     func(ci cellgrid.CellInds, state *simstate.State, lat *lattice.Lattice)
}
