package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wildfunctions/typed_gp/pkg/engine"
	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/score"
	"github.com/wildfunctions/typed_gp/pkg/store"
	"github.com/wildfunctions/typed_gp/pkg/strategy"
)

var (
	configPath string
	flagCfg    = engine.DefaultConfig()

	evolveCmd = &cobra.Command{
		Use:   "evolve",
		Short: "Evolve programs toward a target function",
		Long: `Runs the evolutionary search. Settings come from the defaults, then the
YAML file given with --config, then any flags set on the command line.`,
		Args: cobra.NoArgs,
		RunE: runEvolve,
	}
)

func init() {
	f := evolveCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.StringVar(&flagCfg.Target, "target", flagCfg.Target, "target function ("+strings.Join(score.TargetNames(), ", ")+")")
	f.StringVar(&flagCfg.Pool, "pool", flagCfg.Pool, "gene pool ("+strings.Join(pool.Names(), ", ")+")")
	f.StringVar(&flagCfg.Strategy, "strategy", flagCfg.Strategy, "evolution strategy ("+strings.Join(strategy.Names(), ", ")+")")
	f.IntVar(&flagCfg.Population, "population", flagCfg.Population, "population size")
	f.IntVar(&flagCfg.Generations, "generations", flagCfg.Generations, "generation budget (0 = until interrupted)")
	f.IntVar(&flagCfg.Samples, "samples", flagCfg.Samples, "points sampled from the target")
	f.IntVar(&flagCfg.MaxDepth, "maxdepth", flagCfg.MaxDepth, "depth of freshly grown programs")
	f.IntVar(&flagCfg.DepthCap, "depthcap", flagCfg.DepthCap, "max program depth (0 = none)")
	f.IntVar(&flagCfg.SizeCap, "sizecap", flagCfg.SizeCap, "max program size (0 = none)")
	f.StringVar(&flagCfg.Index, "index", flagCfg.Index, "random node index strategy (uniform, legacy)")
	f.BoolVar(&flagCfg.Simplify, "simplify", flagCfg.Simplify, "fold constants in offspring")
	f.StringToString("operators", nil, "operator weights, e.g. crossover=0.7,subtree=0.3 ("+strings.Join(engine.OperatorNames(), ", ")+")")
	f.Float64Var(&flagCfg.Parsimony, "parsimony", flagCfg.Parsimony, "complexity penalty weight")
	f.Int64Var(&flagCfg.Seed, "seed", flagCfg.Seed, "random seed (0 = random)")
	f.IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "number of parallel workers")
	f.IntVar(&flagCfg.StagnationLimit, "stagnation", flagCfg.StagnationLimit, "generations without improvement before restart")
	f.Float64Var(&flagCfg.TargetScore, "target-score", flagCfg.TargetScore, "stop once the best score reaches this (negative disables)")
	f.StringVar(&flagCfg.Format, "format", flagCfg.Format, "output format (text, json)")
	f.BoolVar(&flagCfg.Verbose, "verbose", flagCfg.Verbose, "log and report every generation")
	f.StringVar(&flagCfg.OutDir, "outdir", flagCfg.OutDir, "directory for the LaTeX hall of fame")
	f.StringVar(&flagCfg.Store, "store", flagCfg.Store, "program store backend (memory, sqlite)")
	f.StringVar(&flagCfg.StorePath, "store-path", flagCfg.StorePath, "sqlite database path")
}

func runEvolve(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := engine.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	if cfg.Store != "" {
		s, err := store.NewStore(cfg.Store, cfg.StorePath)
		if err != nil {
			return err
		}
		if err := s.Init(ctx); err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer s.Close()
		e.WithStore(s)
	}

	report, err := e.Run(ctx)
	if err != nil {
		return err
	}

	switch cfg.Format {
	case "json":
		return engine.WriteJSONFinal(cmd.OutOrStdout(), report)
	default:
		engine.WriteTextFinal(cmd.OutOrStdout(), report)
		return nil
	}
}

// resolveConfig layers the config file and the flags the user set over the
// defaults.
func resolveConfig(cmd *cobra.Command) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if configPath != "" {
		loaded, err := engine.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("target", func() { cfg.Target = flagCfg.Target })
	set("pool", func() { cfg.Pool = flagCfg.Pool })
	set("strategy", func() { cfg.Strategy = flagCfg.Strategy })
	set("population", func() { cfg.Population = flagCfg.Population })
	set("generations", func() { cfg.Generations = flagCfg.Generations })
	set("samples", func() { cfg.Samples = flagCfg.Samples })
	set("maxdepth", func() { cfg.MaxDepth = flagCfg.MaxDepth })
	set("depthcap", func() { cfg.DepthCap = flagCfg.DepthCap })
	set("sizecap", func() { cfg.SizeCap = flagCfg.SizeCap })
	set("index", func() { cfg.Index = flagCfg.Index })
	set("simplify", func() { cfg.Simplify = flagCfg.Simplify })
	set("parsimony", func() { cfg.Parsimony = flagCfg.Parsimony })
	set("seed", func() { cfg.Seed = flagCfg.Seed })
	set("workers", func() { cfg.Workers = flagCfg.Workers })
	set("stagnation", func() { cfg.StagnationLimit = flagCfg.StagnationLimit })
	set("target-score", func() { cfg.TargetScore = flagCfg.TargetScore })
	set("format", func() { cfg.Format = flagCfg.Format })
	set("verbose", func() { cfg.Verbose = flagCfg.Verbose })
	set("outdir", func() { cfg.OutDir = flagCfg.OutDir })
	set("store", func() { cfg.Store = flagCfg.Store })
	set("store-path", func() { cfg.StorePath = flagCfg.StorePath })

	if flags.Changed("operators") {
		raw, err := flags.GetStringToString("operators")
		if err != nil {
			return cfg, err
		}
		weights, err := parseWeights(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Operators = weights
	}
	return cfg, nil
}
