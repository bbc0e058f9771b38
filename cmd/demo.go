package cmd

import (
	"context"
	"fmt"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/config"
	"github.com/jjramsey/kmcthinfilm-go/executor"
	"github.com/jjramsey/kmcthinfilm-go/kmc"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
	"github.com/jjramsey/kmcthinfilm-go/rng"
	"github.com/jjramsey/kmcthinfilm-go/simstate"
	"github.com/jjramsey/kmcthinfilm-go/solver"
	"github.com/jjramsey/kmcthinfilm-go/timeincr"
	"github.com/jjramsey/kmcthinfilm-go/transport"
)

// depositionRatePerArea and decayRate parameterize the single-species
// birth-death process BuildDepositionDecayDemo wires up: a deposition
// event over the whole lattice competing against a per-cell decay
// event, the same toy process exercised in package kmc's tests, kept
// deliberately generic rather than a detailed physical thin-film model.
const (
	depositionRatePerArea = 1.0
	decayRate             = 0.5
)

// DemoRun wires the deposition/decay process across as many partitions
// as cfg.Lattice.Decomposition calls for: one for "serial", two for
// "row", four for "compact" (lattice.DecompKind.NumSectors), connected
// through in-process transport.ChannelTransports. This is what lets
// the CLI's one demo path actually exercise the ghost-exchange code
// when a parallel decomposition is configured, instead of silently
// staying serial regardless of the YAML setting.
type DemoRun struct {
	sims       []*kmc.Simulation
	transports []*transport.ChannelTransport
}

// Run executes every partition to horizon, concurrently via
// transport.RunRanks when DemoRun has more than one partition.
func (d *DemoRun) Run(ctx context.Context, horizon float64) error {
	if len(d.sims) == 1 {
		return d.sims[0].Run(ctx, horizon)
	}
	return transport.RunRanks(ctx, d.transports, func(ctx context.Context, tr *transport.ChannelTransport) error {
		return d.sims[tr.Rank()].Run(ctx, horizon)
	})
}

// NumRanks reports how many partitions this run built.
func (d *DemoRun) NumRanks() int { return len(d.sims) }

// Rank returns the i'th partition's Simulation, for reporting after Run.
func (d *DemoRun) Rank(i int) *kmc.Simulation { return d.sims[i] }

func decompKind(name string) (lattice.DecompKind, error) {
	switch name {
	case "serial":
		return lattice.Serial, nil
	case "row":
		return lattice.Row, nil
	case "compact":
		return lattice.Compact, nil
	default:
		return 0, fmt.Errorf("unknown decomposition %q", name)
	}
}

func timeIncrScheme(cfg config.TimeIncrConfig) (*timeincr.Params, error) {
	var p *timeincr.Params
	switch cfg.Scheme {
	case "max_avg_propensity":
		p = timeincr.NewParams(timeincr.MaxAvgPropensityPerPossEvent)
	case "max_single_propensity":
		p = timeincr.NewParams(timeincr.MaxSinglePropensity)
	case "fixed_value":
		p = timeincr.NewParams(timeincr.FixedValue)
	default:
		return nil, fmt.Errorf("unknown time-increment scheme %q", cfg.Scheme)
	}
	if cfg.NStop != nil {
		p.SetParam(timeincr.NStop, *cfg.NStop)
	}
	if cfg.TStopMax != nil {
		p.SetParam(timeincr.TStopMax, *cfg.TStopMax)
	}
	if cfg.TStop != nil {
		p.SetParam(timeincr.TStop, *cfg.TStop)
	}
	return p, nil
}

// rankLocalBbox splits the global extent into decomp.NumSectors() equal
// partitions: in half along I for Row, into quadrants for Compact.
func rankLocalBbox(decomp lattice.DecompKind, rank, globalW, globalH int) cellgrid.Bbox {
	b := cellgrid.Bbox{IMin: 0, IMax: globalW - 1, JMin: 0, JMax: globalH - 1}
	switch decomp {
	case lattice.Row:
		half := globalW / 2
		if rank == 0 {
			b.IMax = half - 1
		} else {
			b.IMin = half
		}
	case lattice.Compact:
		halfW, halfH := globalW/2, globalH/2
		if rank&1 == 0 {
			b.IMax = halfW - 1
		} else {
			b.IMin = halfW
		}
		if rank&2 == 0 {
			b.JMax = halfH - 1
		} else {
			b.JMin = halfH
		}
	}
	return b
}

// ghostExtent fills in a minimum ghost depth of 1 along whichever axes
// the decomposition actually partitions, so a YAML config that leaves
// ghost_x/ghost_y at zero still gets a usable ghost border once a
// parallel decomposition is selected.
func ghostExtent(cfg config.LatticeConfig, decomp lattice.DecompKind) (int, int) {
	gx, gy := cfg.GhostX, cfg.GhostY
	switch decomp {
	case lattice.Row:
		if gx == 0 {
			gx = 1
		}
	case lattice.Compact:
		if gx == 0 {
			gx = 1
		}
		if gy == 0 {
			gy = 1
		}
	}
	return gx, gy
}

func registerDepositionDecay(sim *kmc.Simulation) {
	sim.AddOverLatticeEvent(1, &executor.OverLatticeEvent{
		RatePerArea: depositionRatePerArea,
		Execute: func(ci cellgrid.CellInds, state *simstate.State, lat *lattice.Lattice) {
			lat.SetInt(ci, 0, lat.GetInt(ci, 0)+1)
		},
	})
	sim.AddCellCenteredEventGroup(1, &executor.Group{
		ReadOffsets: []cellgrid.Offset{{DI: 0, DJ: 0, DK: 0}},
		Propensities: func(ci cellgrid.CellInds, lat *lattice.Lattice) []float64 {
			if lat.GetInt(ci, 0) > 0 {
				return []float64{decayRate}
			}
			return []float64{0}
		},
		Kinds: []executor.EventKind{{
			Kind: executor.AutoTrack,
			Auto: func(ci cellgrid.CellInds, state *simstate.State, lat *lattice.Lattice) {
				lat.SetInt(ci, 0, lat.GetInt(ci, 0)-1)
			},
		}},
	})
}

// BuildDepositionDecayDemo wires a DemoRun from cfg: a single partition
// for "serial", or cfg.Lattice.Decomposition's full sector count of
// partitions wired together through in-process ChannelTransports for
// "row"/"compact", each running the same deposition/decay process.
func BuildDepositionDecayDemo(cfg *config.RunConfig) (*DemoRun, error) {
	decomp, err := decompKind(cfg.Lattice.Decomposition())
	if err != nil {
		return nil, err
	}
	numRanks := decomp.NumSectors()
	gx, gy := ghostExtent(cfg.Lattice, decomp)

	var transports []*transport.ChannelTransport
	if numRanks > 1 {
		transports = transport.NewChannelTransports(numRanks)
	}

	sims := make([]*kmc.Simulation, numRanks)
	for r := 0; r < numRanks; r++ {
		lat := lattice.New(lattice.Params{
			GlobalW: cfg.Lattice.GlobalW,
			GlobalH: cfg.Lattice.GlobalH,
			Local:   rankLocalBbox(decomp, r, cfg.Lattice.GlobalW, cfg.Lattice.GlobalH),
			GhostX:  gx,
			GhostY:  gy,
			NInt:    cfg.Lattice.NInt,
			NFloat:  cfg.Lattice.NFloat,
			Decomp:  decomp,
		})

		var tr transport.PartitionTransport
		if numRanks > 1 {
			tr = transports[r]
		} else {
			tr = transport.NewSerialTransport()
		}

		sim := kmc.NewSimulation(lat, tr)
		sim.SetTrackCellsChangedByPeriodicActions(cfg.TrackCellsChangedByPeriodicActions)
		registerDepositionDecay(sim)

		if numRanks > 1 {
			neighbors := make([]int, 0, numRanks-1)
			for other := 0; other < numRanks; other++ {
				if other != r {
					neighbors = append(neighbors, other)
				}
			}
			sim.SetNeighborRanks(neighbors)
		}

		ctx := sim.PreparedIdCtx()
		switch cfg.Solver.Kind {
		case "schulze":
			sim.SetSolver(solver.NewSchulzeSolver(ctx, lat.NumSectors()))
		case "binary_tree":
			sim.SetSolver(solver.NewBinaryTreeSolver(ctx, lat.NumSectors()))
		default:
			return nil, fmt.Errorf("unknown solver kind %q", cfg.Solver.Kind)
		}
		sim.SetRNG(rng.NewPartitionedRNG(cfg.Seed + int64(r)))

		tIncr, err := timeIncrScheme(cfg.TimeIncr)
		if err != nil {
			return nil, err
		}
		sim.SetTimeIncrScheme(tIncr)

		sims[r] = sim
	}

	return &DemoRun{sims: sims, transports: transports}, nil
}
