package cmd

import (
	"context"
	"testing"

	"github.com/jjramsey/kmcthinfilm-go/config"
)

func demoConfig() *config.RunConfig {
	tstop := 0.05
	return &config.RunConfig{
		Lattice: config.LatticeConfig{GlobalW: 4, GlobalH: 4, NInt: 1, Decomp: "serial"},
		Solver:  config.SolverConfig{Kind: "schulze"},
		TimeIncr: config.TimeIncrConfig{
			Scheme: "fixed_value",
			TStop:  &tstop,
		},
		Seed:    5,
		Horizon: 1.0,
	}
}

func TestBuildDepositionDecayDemoRunsToHorizon(t *testing.T) {
	cfg := demoConfig()
	demo, err := BuildDepositionDecayDemo(cfg)
	if err != nil {
		t.Fatalf("BuildDepositionDecayDemo returned error: %v", err)
	}
	if demo.NumRanks() != 1 {
		t.Fatalf("NumRanks = %d, want 1 for serial decomposition", demo.NumRanks())
	}

	if err := demo.Run(context.Background(), cfg.Horizon); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	sim := demo.Rank(0)
	if sim.ElapsedTime() < cfg.Horizon {
		t.Fatalf("ElapsedTime = %v, want >= %v", sim.ElapsedTime(), cfg.Horizon)
	}
}

func TestBuildDepositionDecayDemoRowDecompositionRunsTwoRanks(t *testing.T) {
	cfg := demoConfig()
	cfg.Lattice.Decomp = "row"
	demo, err := BuildDepositionDecayDemo(cfg)
	if err != nil {
		t.Fatalf("BuildDepositionDecayDemo returned error: %v", err)
	}
	if demo.NumRanks() != 2 {
		t.Fatalf("NumRanks = %d, want 2 for row decomposition", demo.NumRanks())
	}

	if err := demo.Run(context.Background(), cfg.Horizon); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for r := 0; r < demo.NumRanks(); r++ {
		if got := demo.Rank(r).ElapsedTime(); got < cfg.Horizon {
			t.Fatalf("rank %d ElapsedTime = %v, want >= %v", r, got, cfg.Horizon)
		}
	}
}

func TestBuildDepositionDecayDemoCompactDecompositionRunsFourRanks(t *testing.T) {
	cfg := demoConfig()
	cfg.Lattice.Decomp = "compact"
	demo, err := BuildDepositionDecayDemo(cfg)
	if err != nil {
		t.Fatalf("BuildDepositionDecayDemo returned error: %v", err)
	}
	if demo.NumRanks() != 4 {
		t.Fatalf("NumRanks = %d, want 4 for compact decomposition", demo.NumRanks())
	}

	if err := demo.Run(context.Background(), cfg.Horizon); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for r := 0; r < demo.NumRanks(); r++ {
		if got := demo.Rank(r).ElapsedTime(); got < cfg.Horizon {
			t.Fatalf("rank %d ElapsedTime = %v, want >= %v", r, got, cfg.Horizon)
		}
	}
}

func TestBuildDepositionDecayDemoRejectsUnknownSolver(t *testing.T) {
	cfg := demoConfig()
	cfg.Solver.Kind = "bogus"
	if _, err := BuildDepositionDecayDemo(cfg); err == nil {
		t.Fatal("expected an error for an unknown solver kind")
	}
}

func TestBuildDepositionDecayDemoRejectsUnknownDecomposition(t *testing.T) {
	cfg := demoConfig()
	cfg.Lattice.Decomp = "bogus"
	if _, err := BuildDepositionDecayDemo(cfg); err == nil {
		t.Fatal("expected an error for an unknown decomposition")
	}
}

func TestRunCmdConfigFlagIsRequired(t *testing.T) {
	flag := runCmd.Flags().Lookup("config")
	if flag == nil {
		t.Fatal("config flag must be registered")
	}
	if flag.DefValue != "" {
		t.Fatalf("config flag default = %q, want empty (required)", flag.DefValue)
	}
}
