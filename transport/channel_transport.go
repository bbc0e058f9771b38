package transport

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jjramsey/kmcthinfilm-go/lattice"
)

// hub is the shared rendezvous point for one in-process multi-rank
// run: every operation is an all-to-all barrier — each rank posts its
// contribution, blocks until every rank has posted, then all ranks
// read the combined result and proceed. This is a simplification of
// real neighbor-only ghost exchange (a rank only waits on ranks it
// actually shares a boundary with), traded for a hub simple enough to
// implement correctly with sync.Cond alone; see DESIGN.md.
type hub struct {
	numRanks int

	mu   sync.Mutex
	cond *sync.Cond

	round    int
	posted   int
	outgoing []map[int][]lattice.GhostCellValue

	reduceRound  int
	reducePosted int
	reduceVals   []float64
}

func newHub(numRanks int) *hub {
	h := &hub{
		numRanks: numRanks,
		outgoing: make([]map[int][]lattice.GhostCellValue, numRanks),
		reduceVals: make([]float64, numRanks),
	}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// ChannelTransport is an in-process PartitionTransport connecting
// numRanks partitions through a shared hub instead of a network or MPI
// binding — for exercising the parallel protocol (ghost exchange plus
// cross-partition MAX reductions) within a single process.
type ChannelTransport struct {
	hub  *hub
	rank int
}

// NewChannelTransports builds numRanks ChannelTransports sharing one
// hub, one per simulated partition.
func NewChannelTransports(numRanks int) []*ChannelTransport {
	h := newHub(numRanks)
	out := make([]*ChannelTransport, numRanks)
	for r := range out {
		out[r] = &ChannelTransport{hub: h, rank: r}
	}
	return out
}

func (t *ChannelTransport) Rank() int     { return t.rank }
func (t *ChannelTransport) NumRanks() int { return t.hub.numRanks }

func (t *ChannelTransport) SendRecvGhosts(ctx context.Context, outgoing map[int][]lattice.GhostCellValue) (map[int][]lattice.GhostCellValue, error) {
	h := t.hub

	h.mu.Lock()
	myRound := h.round
	h.outgoing[t.rank] = outgoing
	h.posted++
	if h.posted == h.numRanks {
		h.posted = 0
		h.round++
		h.cond.Broadcast()
	} else {
		for h.round == myRound {
			if ctx.Err() != nil {
				h.mu.Unlock()
				return nil, ctx.Err()
			}
			h.cond.Wait()
		}
	}

	incoming := make(map[int][]lattice.GhostCellValue)
	for sender := 0; sender < h.numRanks; sender++ {
		if sender == t.rank {
			continue
		}
		if payload, ok := h.outgoing[sender][t.rank]; ok {
			incoming[sender] = payload
		}
	}
	h.mu.Unlock()

	return incoming, ctx.Err()
}

func (t *ChannelTransport) ReduceMax(ctx context.Context, local float64) (float64, error) {
	h := t.hub

	h.mu.Lock()
	myRound := h.reduceRound
	h.reduceVals[t.rank] = local
	h.reducePosted++
	if h.reducePosted == h.numRanks {
		h.reducePosted = 0
		h.reduceRound++
		h.cond.Broadcast()
	} else {
		for h.reduceRound == myRound {
			if ctx.Err() != nil {
				h.mu.Unlock()
				return 0, ctx.Err()
			}
			h.cond.Wait()
		}
	}

	max := h.reduceVals[0]
	for _, v := range h.reduceVals[1:] {
		if v > max {
			max = v
		}
	}
	h.mu.Unlock()

	return max, ctx.Err()
}

// RunRanks runs fn concurrently for each transport in transports,
// fanning out with an errgroup.Group so the first error any rank
// returns cancels the shared context and is propagated to the caller —
// the goroutine-fan-out-guarded-by-context shape used throughout
// niceyeti-tabular's server/fastview package.
func RunRanks(ctx context.Context, transports []*ChannelTransport, fn func(ctx context.Context, t *ChannelTransport) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range transports {
		t := t
		g.Go(func() error { return fn(gctx, t) })
	}
	return g.Wait()
}
