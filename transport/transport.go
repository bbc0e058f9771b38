// Package transport abstracts the two cross-partition operations the
// synchronous-sublattice parallel algorithm needs once per sector
// quantum (spec §5): exchanging ghost-cell values with other
// partitions, and reducing a scalar (a time-increment driver quantity,
// or the jumpstart's elapsed time) to its maximum across all partitions.
// Exact byte layout is implementation-defined (spec §6), so this
// package trades wire bytes directly in Go values rather than
// serializing them.
package transport

import (
	"context"

	"github.com/jjramsey/kmcthinfilm-go/lattice"
)

// PartitionTransport is what the driver in package kmc depends on to
// run in either serial or (approximate) parallel mode without caring
// which.
type PartitionTransport interface {
	// SendRecvGhosts exchanges outgoing[destRank] with whatever every
	// other rank addressed to this rank, returning everything
	// received keyed by sending rank. Blocks until every rank
	// participating in this transport has called it for the current
	// round.
	SendRecvGhosts(ctx context.Context, outgoing map[int][]lattice.GhostCellValue) (map[int][]lattice.GhostCellValue, error)

	// ReduceMax combines local with every rank's own local value via
	// MAX, returning the combined result to all ranks. Blocks the
	// same way SendRecvGhosts does.
	ReduceMax(ctx context.Context, local float64) (float64, error)

	Rank() int
	NumRanks() int
}

// SerialTransport is the no-op PartitionTransport for a single
// partition: Serial decomposition, or a parallel decomposition run
// under exactly one rank. Both operations are identities.
type SerialTransport struct{}

// NewSerialTransport returns the single-partition transport.
func NewSerialTransport() SerialTransport { return SerialTransport{} }

func (SerialTransport) SendRecvGhosts(ctx context.Context, outgoing map[int][]lattice.GhostCellValue) (map[int][]lattice.GhostCellValue, error) {
	return nil, nil
}

func (SerialTransport) ReduceMax(ctx context.Context, local float64) (float64, error) {
	return local, nil
}

func (SerialTransport) Rank() int     { return 0 }
func (SerialTransport) NumRanks() int { return 1 }
