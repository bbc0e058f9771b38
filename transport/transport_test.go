package transport

import (
	"context"
	"testing"

	"github.com/jjramsey/kmcthinfilm-go/cellgrid"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
)

func TestSerialTransportIsIdentity(t *testing.T) {
	tr := NewSerialTransport()
	if tr.NumRanks() != 1 || tr.Rank() != 0 {
		t.Fatalf("SerialTransport rank/numRanks = %d/%d, want 0/1", tr.Rank(), tr.NumRanks())
	}
	max, err := tr.ReduceMax(context.Background(), 3.5)
	if err != nil || max != 3.5 {
		t.Fatalf("ReduceMax = %v, %v; want 3.5, nil", max, err)
	}
	incoming, err := tr.SendRecvGhosts(context.Background(), nil)
	if err != nil || incoming != nil {
		t.Fatalf("SendRecvGhosts = %v, %v; want nil, nil", incoming, err)
	}
}

func TestChannelTransportReduceMax(t *testing.T) {
	transports := NewChannelTransports(3)
	locals := []float64{1.0, 7.0, 3.0}

	err := RunRanks(context.Background(), transports, func(ctx context.Context, tr *ChannelTransport) error {
		max, err := tr.ReduceMax(ctx, locals[tr.Rank()])
		if err != nil {
			return err
		}
		if max != 7.0 {
			t.Errorf("rank %d saw max %v, want 7.0", tr.Rank(), max)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunRanks returned error: %v", err)
	}
}

func TestChannelTransportGhostExchange(t *testing.T) {
	transports := NewChannelTransports(2)

	err := RunRanks(context.Background(), transports, func(ctx context.Context, tr *ChannelTransport) error {
		var outgoing map[int][]lattice.GhostCellValue
		if tr.Rank() == 0 {
			outgoing = map[int][]lattice.GhostCellValue{
				1: {{CI: cellgrid.CellInds{I: 3, J: 0, K: 0}, Ints: []int32{42}}},
			}
		}
		incoming, err := tr.SendRecvGhosts(ctx, outgoing)
		if err != nil {
			return err
		}
		if tr.Rank() == 1 {
			payload, ok := incoming[0]
			if !ok || len(payload) != 1 || payload[0].Ints[0] != 42 {
				t.Errorf("rank 1 incoming = %+v, want one cell with Ints[0]=42", incoming)
			}
		} else if len(incoming) != 0 {
			t.Errorf("rank 0 incoming = %+v, want empty", incoming)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunRanks returned error: %v", err)
	}
}

func TestChannelTransportMultipleRoundsStaySynchronized(t *testing.T) {
	transports := NewChannelTransports(4)

	err := RunRanks(context.Background(), transports, func(ctx context.Context, tr *ChannelTransport) error {
		for round := 1; round <= 3; round++ {
			max, err := tr.ReduceMax(ctx, float64(tr.Rank()+round))
			if err != nil {
				return err
			}
			want := float64(3 + round) // rank 3 always contributes the max
			if max != want {
				t.Errorf("round %d: max = %v, want %v", round, max, want)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunRanks returned error: %v", err)
	}
}
