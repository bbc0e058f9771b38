// Package cellgrid provides the integer coordinate arithmetic shared by the
// rest of the engine: cell indices, offsets between cells, and horizontal
// periodic wrapping.
package cellgrid

import "fmt"

// CellInds identifies one lattice site. I and J are horizontal (periodic);
// K is vertical and bounded above by the lattice's current height.
type CellInds struct {
	I, J, K int
}

// Offset is a displacement between two CellInds. It shares CellInds's shape
// but is never itself periodic — wrapping only applies at the point of
// lattice access.
type Offset struct {
	DI, DJ, DK int
}

// Add returns the cell reached by displacing ci by o.
func (ci CellInds) Add(o Offset) CellInds {
	return CellInds{I: ci.I + o.DI, J: ci.J + o.DJ, K: ci.K + o.DK}
}

// Neg returns the offset that undoes o.
func (o Offset) Neg() Offset {
	return Offset{DI: -o.DI, DJ: -o.DJ, DK: -o.DK}
}

// Sub returns the offset from b to a, i.e. a == b.Add(a.Sub(b)).
func (a CellInds) Sub(b CellInds) Offset {
	return Offset{DI: a.I - b.I, DJ: a.J - b.J, DK: a.K - b.K}
}

// Less gives a lexicographic total order on (I, J, K), used wherever the
// engine needs an ordered set or map keyed by cell identity so that
// iteration is reproducible across runs (spec §5 Determinism).
func (ci CellInds) Less(other CellInds) bool {
	if ci.I != other.I {
		return ci.I < other.I
	}
	if ci.J != other.J {
		return ci.J < other.J
	}
	return ci.K < other.K
}

func (ci CellInds) String() string {
	return fmt.Sprintf("(%d,%d,%d)", ci.I, ci.J, ci.K)
}

// Bbox is a horizontal bounding box in (i,j), with K left implicit since it
// always spans the full current lattice height.
type Bbox struct {
	IMin, IMax int // inclusive
	JMin, JMax int // inclusive
}

// Width returns the I extent, IMax-IMin+1.
func (b Bbox) Width() int { return b.IMax - b.IMin + 1 }

// Height returns the J extent (named Height to match the source's W×H
// horizontal-extent terminology; unrelated to the lattice's vertical height).
func (b Bbox) Height() int { return b.JMax - b.JMin + 1 }

// Area returns Width()*Height().
func (b Bbox) Area() int { return b.Width() * b.Height() }

// Contains reports whether (i,j) lies within the box (no wrapping applied).
func (b Bbox) Contains(i, j int) bool {
	return i >= b.IMin && i <= b.IMax && j >= b.JMin && j <= b.JMax
}

// Wrap reduces i modulo w and j modulo h using mathematical modulo (always
// non-negative), matching spec §4.A: "mod chosen to match mathematical
// modulo over all integers (not C remainder)".
func Wrap(i, j, w, h int) (int, int) {
	return mod(i, w), mod(j, h)
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
