package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidYAML(t *testing.T) {
	path := writeTempYAML(t, `
lattice:
  global_width: 16
  global_height: 16
  num_int_slots: 1
  decomposition: row
solver:
  kind: binary_tree
time_increment:
  scheme: fixed_value
  tstop: 0.01
seed: 42
horizon: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.Lattice.GlobalW != 16 || cfg.Lattice.Decomposition() != "row" {
		t.Fatalf("unexpected lattice config: %+v", cfg.Lattice)
	}
	if cfg.Solver.Kind != "binary_tree" {
		t.Fatalf("unexpected solver kind: %q", cfg.Solver.Kind)
	}
	if cfg.TimeIncr.TStop == nil || *cfg.TimeIncr.TStop != 0.01 {
		t.Fatalf("unexpected tstop: %v", cfg.TimeIncr.TStop)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeTempYAML(t, `
lattice:
  global_width: 16
  global_height: 16
  num_int_slots: 1
  typo_field: true
solver:
  kind: schulze
time_increment:
  scheme: fixed_value
  tstop: 0.01
horizon: 10
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error decoding an unknown field")
	}
}

func TestValidateRejectsUnknownSolverKind(t *testing.T) {
	cfg := &RunConfig{
		Lattice:  LatticeConfig{GlobalW: 4, GlobalH: 4, NInt: 1},
		Solver:   SolverConfig{Kind: "bogus"},
		TimeIncr: TimeIncrConfig{Scheme: "fixed_value", TStop: floatPtr(0.1)},
		Horizon:  1,
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error for an unknown solver kind")
	}
}

func TestValidateRequiresTStopForFixedValueScheme(t *testing.T) {
	cfg := &RunConfig{
		Lattice:  LatticeConfig{GlobalW: 4, GlobalH: 4, NInt: 1},
		Solver:   SolverConfig{Kind: "schulze"},
		TimeIncr: TimeIncrConfig{Scheme: "fixed_value"},
		Horizon:  1,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when fixed_value scheme has no tstop")
	}
}

func TestValidateDefaultsEmptyDecompositionToSerial(t *testing.T) {
	cfg := &RunConfig{
		Lattice:  LatticeConfig{GlobalW: 4, GlobalH: 4, NInt: 1},
		Solver:   SolverConfig{Kind: "schulze"},
		TimeIncr: TimeIncrConfig{Scheme: "fixed_value", TStop: floatPtr(0.1)},
		Horizon:  1,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.Lattice.Decomposition() != "serial" {
		t.Fatalf("expected default decomposition serial, got %q", cfg.Lattice.Decomposition())
	}
}

func floatPtr(v float64) *float64 { return &v }
