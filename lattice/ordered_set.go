package lattice

import (
	"sort"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
)

// orderedCellSet is a set of cell coordinates that is always consumed in
// (i,j,k) lexicographic order, satisfying spec §5's requirement that the
// change log be an ordered container rather than a hash set: membership
// is a map for O(1) dedup, but every read goes through ordered(), which
// sorts by cellgrid.CellInds.Less before returning. This trades a sort
// on read for simpler incremental maintenance; since the change log is
// drained at most once per event/plane-append, this is not a hot path.
type orderedCellSet struct {
	members map[cellgrid.CellInds]struct{}
}

func newOrderedCellSet() *orderedCellSet {
	return &orderedCellSet{members: make(map[cellgrid.CellInds]struct{})}
}

func (s *orderedCellSet) add(ci cellgrid.CellInds) {
	s.members[ci] = struct{}{}
}

func (s *orderedCellSet) clear() {
	for k := range s.members {
		delete(s.members, k)
	}
}

func (s *orderedCellSet) len() int { return len(s.members) }

func (s *orderedCellSet) ordered() []cellgrid.CellInds {
	out := make([]cellgrid.CellInds, 0, len(s.members))
	for ci := range s.members {
		out = append(out, ci)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Less(out[b]) })
	return out
}
