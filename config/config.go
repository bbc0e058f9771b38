// Package config loads and validates the YAML configuration a KMC run
// is parameterized by (spec §6 "LatticeParams" and the scheme/solver
// choices around it), following the teacher's sim/bundle.go pattern:
// strict (KnownFields) YAML decoding plus a Validate method that
// rejects bad names and out-of-range parameters before anything is
// built from them.
package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LatticeConfig parameterizes the lattice a run builds (spec §4.D).
type LatticeConfig struct {
	GlobalW int    `yaml:"global_width"`
	GlobalH int    `yaml:"global_height"`
	GhostX  int    `yaml:"ghost_x"`
	GhostY  int    `yaml:"ghost_y"`
	NInt    int    `yaml:"num_int_slots"`
	NFloat  int    `yaml:"num_float_slots"`
	Decomp  string `yaml:"decomposition"` // "serial", "row", or "compact"
}

// SolverConfig selects and configures the event-list solver (spec §4.F).
type SolverConfig struct {
	Kind string `yaml:"kind"` // "schulze" or "binary_tree"
}

// TimeIncrConfig selects and configures the time-increment scheme
// (spec §4.H).
type TimeIncrConfig struct {
	Scheme   string   `yaml:"scheme"` // "max_avg_propensity", "max_single_propensity", or "fixed_value"
	NStop    *float64 `yaml:"nstop"`
	TStopMax *float64 `yaml:"tstop_max"`
	TStop    *float64 `yaml:"tstop"`
}

// RunConfig is the top-level, strictly-decoded run configuration.
type RunConfig struct {
	Lattice  LatticeConfig  `yaml:"lattice"`
	Solver   SolverConfig   `yaml:"solver"`
	TimeIncr TimeIncrConfig `yaml:"time_increment"`
	Seed     int64          `yaml:"seed"`
	Horizon  float64        `yaml:"horizon"`

	TrackCellsChangedByPeriodicActions bool `yaml:"track_cells_changed_by_periodic_actions"`
}

var (
	validDecomps = map[string]bool{"serial": true, "row": true, "compact": true}
	validSolvers = map[string]bool{"schulze": true, "binary_tree": true}
	validSchemes = map[string]bool{"max_avg_propensity": true, "max_single_propensity": true, "fixed_value": true}
)

// Load reads and strictly parses a run configuration from path.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every name is recognized and every numeric
// parameter is in range, before any lattice/solver/scheme is built
// from the config.
func (c *RunConfig) Validate() error {
	if !validDecomps[c.Lattice.Decomposition()] {
		return fmt.Errorf("unknown decomposition %q; valid options: %s", c.Lattice.Decomp, namesOf(validDecomps))
	}
	if c.Lattice.GlobalW <= 0 || c.Lattice.GlobalH <= 0 {
		return fmt.Errorf("lattice dimensions must be positive, got %dx%d", c.Lattice.GlobalW, c.Lattice.GlobalH)
	}
	if c.Lattice.NInt == 0 && c.Lattice.NFloat == 0 {
		return fmt.Errorf("lattice must have at least one int or float slot")
	}
	if !validSolvers[c.Solver.Kind] {
		return fmt.Errorf("unknown solver kind %q; valid options: %s", c.Solver.Kind, namesOf(validSolvers))
	}
	if !validSchemes[c.TimeIncr.Scheme] {
		return fmt.Errorf("unknown time-increment scheme %q; valid options: %s", c.TimeIncr.Scheme, namesOf(validSchemes))
	}
	if c.TimeIncr.Scheme == "fixed_value" && c.TimeIncr.TStop == nil {
		return fmt.Errorf("time_increment.tstop is required for the fixed_value scheme")
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %f", c.Horizon)
	}
	return nil
}

// Decomposition normalizes the configured decomposition name, treating
// an empty string as "serial".
func (l LatticeConfig) Decomposition() string {
	if l.Decomp == "" {
		return "serial"
	}
	return l.Decomp
}

func namesOf(m map[string]bool) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
