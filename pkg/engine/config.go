package engine

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/score"
	"github.com/wildfunctions/typed_gp/pkg/strategy"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all parameters for an evolutionary run.
type Config struct {
	Target      string `yaml:"target" json:"target"`
	Pool        string `yaml:"pool" json:"pool"`
	Strategy    string `yaml:"strategy" json:"strategy"`
	Population  int    `yaml:"population" json:"population"`
	Generations int    `yaml:"generations" json:"generations"` // <= 0 runs until cancelled
	Samples     int    `yaml:"samples" json:"samples"`         // points sampled from the target

	MaxDepth int    `yaml:"max_depth" json:"max_depth"` // depth of freshly grown programs
	DepthCap int    `yaml:"depth_cap" json:"depth_cap"` // checker depth limit, 0 = none
	SizeCap  int    `yaml:"size_cap" json:"size_cap"`   // checker size limit, 0 = none
	Index    string `yaml:"index" json:"index"`         // "uniform" or "legacy"
	Simplify bool   `yaml:"simplify" json:"simplify"`

	Operators map[string]float64 `yaml:"operators" json:"operators"` // relative weights by operator name
	Parsimony float64            `yaml:"parsimony" json:"parsimony"`

	Seed            int64   `yaml:"seed" json:"seed"`
	Workers         int     `yaml:"workers" json:"workers"`
	StagnationLimit int     `yaml:"stagnation_limit" json:"stagnation_limit"`
	TargetScore     float64 `yaml:"target_score" json:"target_score"` // stop once the best score reaches it; negative disables

	Format    string `yaml:"format" json:"format"` // "text" or "json"
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	OutDir    string `yaml:"out_dir" json:"out_dir,omitempty"`
	Store     string `yaml:"store" json:"store,omitempty"` // "", "memory" or "sqlite"
	StorePath string `yaml:"store_path" json:"store_path,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Target:      "quadratic",
		Pool:        "moderate",
		Strategy:    "tournament",
		Population:  200,
		Generations: 200,
		Samples:     21,
		MaxDepth:    4,
		DepthCap:    10,
		SizeCap:     60,
		Index:       "uniform",
		Simplify:    true,
		Operators: map[string]float64{
			"crossover": 0.6,
			"subtree":   0.15,
			"point":     0.1,
			"const":     0.1,
			"hoist":     0.025,
			"shrink":    0.025,
		},
		Parsimony:       0.001,
		Seed:            0, // 0 = random
		Workers:         runtime.NumCPU(),
		StagnationLimit: 50,
		TargetScore:     1e-9,
		Format:          "text",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the file
// keep their defaults; an operators map in the file replaces the default one.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var raw struct {
		Operators map[string]float64 `yaml:"operators"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if raw.Operators != nil {
		cfg.Operators = nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks names against the registries and the numeric ranges.
func (c Config) Validate() error {
	var errs []error
	if _, err := score.GetTarget(c.Target); err != nil {
		errs = append(errs, err)
	}
	if _, err := pool.Get(c.Pool); err != nil {
		errs = append(errs, err)
	}
	if _, err := strategy.Get(c.Strategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := tree.ParseIndexStrategy(c.Index); err != nil {
		errs = append(errs, err)
	}
	if c.Population < 2 {
		errs = append(errs, fmt.Errorf("population must be at least 2, got %d", c.Population))
	}
	if c.Samples < 1 {
		errs = append(errs, fmt.Errorf("samples must be positive, got %d", c.Samples))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if c.DepthCap > 0 && c.DepthCap < c.MaxDepth {
		errs = append(errs, fmt.Errorf("depth_cap %d is below max_depth %d", c.DepthCap, c.MaxDepth))
	}
	if c.Parsimony < 0 {
		errs = append(errs, fmt.Errorf("parsimony must not be negative, got %v", c.Parsimony))
	}
	for _, name := range c.operatorNames() {
		if _, ok := operatorBuilders[name]; !ok {
			errs = append(errs, fmt.Errorf("unknown operator: %s (available: %v)", name, OperatorNames()))
		}
	}
	switch c.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown format: %s", c.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// operatorNames returns the configured operator names, sorted so that a seed
// always builds the same table.
func (c Config) operatorNames() []string {
	names := make([]string, 0, len(c.Operators))
	for k := range c.Operators {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
