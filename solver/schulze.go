package solver

import (
	"math"
	"sort"

	"github.com/jjramsey/kmcthinfilm-go/eventid"
	"github.com/jjramsey/kmcthinfilm-go/rng"
)

// SchulzeSolver groups events by exact propensity value, following
// Schulze (Phys. Rev. E 65, 036704) as implemented in
// original_source/src/SolverDynamicSchulze.{hpp,cpp}: all events
// sharing a propensity live in one bucket, so the bucket's
// contribution to the partial sum is propensity*len(ids) rather than
// requiring one cumulative-sum slot per event.
//
// Buckets are kept in a slice rather than ranged over as a Go map: a
// new bucket is appended, and an emptied bucket's place is taken by the
// last bucket, so the order depends only on the sequence of operations
// and ChooseEventAndAdvanceTime iterates deterministically run to run
// (spec §5 Determinism).
type SchulzeSolver struct {
	ctx        eventid.IdCtx
	numSectors int
	sectors    []*schulzeSector
	addrMap    *eventid.Map[schulzeLoc]
}

type eidBucket struct {
	prop          float64
	ids           []eventid.EventId
	numOverLattice int
}

type schulzeSector struct {
	keyIdx               map[float64]int
	buckets              []*eidBucket
	totalOverLatticeProp float64
	numOverLatticeEvents int
}

type schulzeLoc struct {
	prop  float64
	pos   int
	valid bool
}

// NewSchulzeSolver constructs a solver for numSectors sectors, using
// ctx for the EventIdMap built at BeginBuildingEventList time.
func NewSchulzeSolver(ctx eventid.IdCtx, numSectors int) *SchulzeSolver {
	return &SchulzeSolver{ctx: ctx, numSectors: numSectors}
}

func (s *SchulzeSolver) BeginBuildingEventList(numOverLatticeEvents, numReservedPlanes int) {
	s.sectors = make([]*schulzeSector, s.numSectors)
	for i := range s.sectors {
		s.sectors[i] = &schulzeSector{keyIdx: make(map[float64]int)}
	}
	s.addrMap = eventid.New[schulzeLoc](s.ctx, s.numSectors, numOverLatticeEvents, numReservedPlanes)
}

func (sec *schulzeSector) bucketIndexFor(prop float64) int {
	if idx, ok := sec.keyIdx[prop]; ok {
		return idx
	}
	idx := len(sec.buckets)
	sec.keyIdx[prop] = idx
	sec.buckets = append(sec.buckets, &eidBucket{prop: prop})
	return idx
}

func (s *SchulzeSolver) addEntry(eid eventid.EventId, propensity float64, sector int, overLattice bool) {
	sec := s.sectors[sector]
	idx := sec.bucketIndexFor(propensity)
	b := sec.buckets[idx]
	pos := len(b.ids)
	b.ids = append(b.ids, eid)
	if overLattice {
		b.numOverLattice++
		sec.numOverLatticeEvents++
		sec.totalOverLatticeProp += propensity
	}
	s.addrMap.AddOrUpdate(eid, schulzeLoc{prop: propensity, pos: pos, valid: true})
}

func (s *SchulzeSolver) AddCellCenteredEntry(eid eventid.EventId, propensity float64, sector int) {
	s.addEntry(eid, propensity, sector, false)
}

func (s *SchulzeSolver) AddOverLatticeEntry(eid eventid.EventId, propensity float64, sector int) {
	s.addEntry(eid, propensity, sector, true)
}

func (s *SchulzeSolver) EndBuildingEventList() {}

// removeFromBucket removes the entry at loc from its bucket, replacing
// it with the bucket's last entry (O(1), same swap-with-rear trick as
// the original's removeFromEventIdList_), and drops the bucket itself
// once it becomes empty.
func (s *SchulzeSolver) removeFromBucket(sector int, loc schulzeLoc, wasOverLattice bool) {
	sec := s.sectors[sector]
	idx, ok := sec.keyIdx[loc.prop]
	if !ok {
		return
	}
	b := sec.buckets[idx]
	last := len(b.ids) - 1
	if loc.pos != last {
		b.ids[loc.pos] = b.ids[last]
		s.addrMap.GetRef(b.ids[loc.pos]).pos = loc.pos
	}
	b.ids = b.ids[:last]
	if wasOverLattice {
		b.numOverLattice--
		sec.numOverLatticeEvents--
		sec.totalOverLatticeProp -= loc.prop
	}

	if len(b.ids) == 0 {
		lastIdx := len(sec.buckets) - 1
		if idx != lastIdx {
			sec.buckets[idx] = sec.buckets[lastIdx]
			sec.keyIdx[sec.buckets[idx].prop] = idx
		}
		delete(sec.keyIdx, loc.prop)
		sec.buckets = sec.buckets[:lastIdx]
	}
}

func (s *SchulzeSolver) AddOrUpdateCellCenteredEntry(eid eventid.EventId, propensity float64, sector int) {
	locPtr, present := s.addrMap.GetPtr(eid)
	if !present || !locPtr.valid {
		if propensity > 0 {
			s.addEntry(eid, propensity, sector, false)
		}
		return
	}

	old := *locPtr
	overLattice := eid.IsOverLattice()
	if propensity > 0 {
		if old.prop == propensity {
			return
		}
		s.removeFromBucket(sector, old, overLattice)
		s.addEntry(eid, propensity, sector, overLattice)
		return
	}

	s.removeFromBucket(sector, old, overLattice)
	locPtr.valid = false
}

func (s *SchulzeSolver) ChooseEventAndAdvanceTime(sector int, src rng.Source, time *float64) (eventid.EventId, bool) {
	sec := s.sectors[sector]
	if len(sec.buckets) == 0 {
		return eventid.EventId{}, false
	}

	partialSums := make([]float64, len(sec.buckets))
	total := 0.0
	for i, b := range sec.buckets {
		total += b.prop * float64(len(b.ids))
		partialSums[i] = total
	}

	r := total * src.NextUniformOpen01()
	idx := sort.Search(len(partialSums), func(i int) bool { return partialSums[i] >= r })
	if idx == len(partialSums) {
		idx = len(partialSums) - 1
	}

	chosen := sec.buckets[idx]
	indForList := int((partialSums[idx] - r) / chosen.prop)
	if indForList < 0 || indForList >= len(chosen.ids) {
		indForList = len(chosen.ids) - 1
	}

	*time += -math.Log(src.NextUniformOpen01()) / total
	return chosen.ids[indForList], true
}

func (s *SchulzeSolver) NoMoreEvents(sector int) bool {
	return len(s.sectors[sector].buckets) == 0
}

func (s *SchulzeSolver) TotalPropensity(sector int) float64 {
	sec := s.sectors[sector]
	total := 0.0
	for _, b := range sec.buckets {
		total += b.prop * float64(len(b.ids))
	}
	return total
}

func (s *SchulzeSolver) NumCellCenteredEvents(sector int) int {
	sec := s.sectors[sector]
	total := 0
	for _, b := range sec.buckets {
		total += len(b.ids)
	}
	return total - sec.numOverLatticeEvents
}

func (s *SchulzeSolver) MaxAvgPropensityPerPossEvent(sector int) float64 {
	sec := s.sectors[sector]
	n := s.NumCellCenteredEvents(sector)
	if n <= 0 {
		return 0
	}
	return (s.TotalPropensity(sector) - sec.totalOverLatticeProp) / float64(n)
}

func (s *SchulzeSolver) MaxSinglePropensity(sector int) float64 {
	sec := s.sectors[sector]
	max := 0.0
	for _, b := range sec.buckets {
		if len(b.ids) == b.numOverLattice {
			continue
		}
		if b.prop > max {
			max = b.prop
		}
	}
	return max
}
