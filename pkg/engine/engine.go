package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/score"
	"github.com/wildfunctions/typed_gp/pkg/store"
	"github.com/wildfunctions/typed_gp/pkg/strategy"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// InputName is the single variable programs read the sample point from.
const InputName = "x"

// ProgramContext returns the context evolved programs live in: the pool's
// catalog, one float input and a float result.
func ProgramContext(p pool.Pool) *prg.Context {
	ctx := prg.NewContext(p.Catalog(), expr.Float)
	if err := ctx.DefineVariable(InputName, expr.Float); err != nil {
		panic(err)
	}
	return ctx
}

// Engine runs the evolutionary search.
type Engine struct {
	cfg      Config
	runID    string
	logger   *slog.Logger
	pool     pool.Pool
	strategy strategy.Strategy
	scorer   score.Scorer
	env      strategy.Env
	rng      *rand.Rand
	store    store.Store

	evaluations atomic.Int64
}

// New creates a new engine from the given config. A nil logger means
// slog.Default().
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	p, err := pool.Get(cfg.Pool)
	if err != nil {
		return nil, err
	}
	s, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	target, err := score.GetTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	index, err := tree.ParseIndexStrategy(cfg.Index)
	if err != nil {
		return nil, err
	}

	checker := prg.Checker{MaxDepth: cfg.DepthCap, MaxSize: cfg.SizeCap}
	gen := pool.NewGenerator(ProgramContext(p), p)
	gen.Checker = checker
	ops, err := buildOperators(cfg, gen, index)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var scorer score.Scorer = score.Regression{Data: score.Sample(target.Fn, target.Lo, target.Hi, cfg.Samples)}
	if cfg.Parsimony > 0 {
		scorer = score.Parsimony{Inner: scorer, Weight: cfg.Parsimony}
	}

	if cfg.Seed == 0 {
		cfg.Seed = rand.Int63()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	runID := uuid.NewString()

	return &Engine{
		cfg:      cfg,
		runID:    runID,
		logger:   logger.With("run", runID),
		pool:     p,
		strategy: s,
		scorer:   scorer,
		env: strategy.Env{
			Generator: gen,
			Operators: ops,
			Checker:   checker,
			Minimize:  scorer.ShouldMinimize(),
			MaxDepth:  cfg.MaxDepth,
			Simplify:  cfg.Simplify,
		},
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// WithStore makes the engine save each attempt's best program to s. The
// store must already be initialized.
func (e *Engine) WithStore(s store.Store) *Engine {
	e.store = s
	return e
}

func (e *Engine) RunID() string { return e.runID }

func (e *Engine) Config() Config { return e.cfg }

// Run executes the evolutionary loop and returns the final report. It stops
// at the generation budget, when the target score is reached, or when ctx is
// cancelled; cancellation is not an error.
func (e *Engine) Run(ctx context.Context) (FinalReport, error) {
	var hallOfFame []AttemptResult
	var genReports []GenerationReport
	totalGensUsed := 0
	attempt := 0
	minimize := e.env.Minimize
	stopped := "budget"

	var globalBest *prg.Program
	globalBestScore := score.Worst(minimize)

	e.logger.Info("starting run",
		"target", e.cfg.Target, "pool", e.cfg.Pool, "strategy", e.cfg.Strategy,
		"population", e.cfg.Population, "generations", e.cfg.Generations,
		"stagnation", e.cfg.StagnationLimit, "workers", e.cfg.Workers, "seed", e.cfg.Seed)

	unlimited := e.cfg.Generations <= 0
run:
	for unlimited || totalGensUsed < e.cfg.Generations {
		attempt++
		if attempt > 1 {
			restartsTotal.Inc()
		}
		e.logger.Info("attempt started", "attempt", attempt)

		e.env.Generation = totalGensUsed
		population, err := e.strategy.Initialize(e.env, e.rng, e.cfg.Population)
		if err != nil {
			return FinalReport{}, fmt.Errorf("initialize attempt %d: %w", attempt, err)
		}

		var bestThisAttempt *prg.Program
		bestThisAttemptScore := score.Worst(minimize)
		gensSinceImprovement := 0
		bestFoundAtGen := 0
		attemptGens := 0
		reachedTarget := false

		for unlimited || totalGensUsed < e.cfg.Generations {
			if ctx.Err() != nil {
				stopped = "cancelled"
				break
			}
			scores, failures := e.evaluatePopulation(population)

			bestIdx := 0
			avg, scored := 0.0, 0
			for i, s := range scores {
				if score.Better(s, scores[bestIdx], minimize) {
					bestIdx = i
				}
				if !math.IsInf(s, 0) && !math.IsNaN(s) {
					avg += s
					scored++
				}
			}
			if scored > 0 {
				avg /= float64(scored)
			} else {
				avg = math.NaN()
			}

			improved := score.Better(scores[bestIdx], bestThisAttemptScore, minimize)
			if improved {
				bestThisAttempt = population[bestIdx].Clone()
				bestThisAttempt.Score = scores[bestIdx]
				bestThisAttemptScore = scores[bestIdx]
				bestFoundAtGen = attemptGens
				gensSinceImprovement = 0
			} else {
				gensSinceImprovement++
			}
			bestScore.Set(scores[bestIdx])
			generationsTotal.WithLabelValues(e.strategy.Name()).Inc()

			report := GenerationReport{
				Generation:  totalGensUsed,
				BestScore:   Score(scores[bestIdx]),
				BestProgram: population[bestIdx].String(),
				BestInfix:   population[bestIdx].Infix(),
				AvgScore:    Score(avg),
				Failures:    failures,
			}
			switch {
			case improved:
				e.logger.Info("new best",
					"attempt", attempt, "gen", attemptGens, "score", bestThisAttemptScore,
					"size", bestThisAttempt.Size(), "program", bestThisAttempt.Infix())
			case e.cfg.Verbose:
				e.logger.Info("generation",
					"attempt", attempt, "gen", attemptGens, "best", report.BestScore,
					"avg", report.AvgScore, "failures", failures)
			}
			if e.cfg.Verbose {
				genReports = append(genReports, report)
			}

			totalGensUsed++
			attemptGens++

			if e.cfg.TargetScore >= 0 && bestThisAttempt != nil && !score.Better(e.cfg.TargetScore, bestThisAttemptScore, minimize) {
				e.logger.Info("target score reached", "gen", attemptGens, "score", bestThisAttemptScore)
				reachedTarget = true
				break
			}

			if e.cfg.StagnationLimit > 0 && gensSinceImprovement >= e.cfg.StagnationLimit {
				e.logger.Info("stagnated",
					"attempt", attempt, "gen", attemptGens, "since_improvement", gensSinceImprovement)
				break
			}

			e.env.Generation = totalGensUsed
			population, err = e.strategy.Evolve(population, scores, e.env, e.rng)
			if err != nil {
				return FinalReport{}, fmt.Errorf("evolve generation %d: %w", totalGensUsed, err)
			}
		}

		if attemptGens > 0 {
			ar := AttemptResult{
				Attempt:        attempt,
				Generations:    attemptGens,
				BestFoundAtGen: bestFoundAtGen,
				BestScore:      Score(bestThisAttemptScore),
				Timestamp:      time.Now().UTC(),
			}
			if bestThisAttempt != nil {
				ar.BestID = bestThisAttempt.ID
				ar.BestProgram = bestThisAttempt.String()
				ar.BestInfix = bestThisAttempt.Infix()
				ar.BestLaTeX = bestThisAttempt.LaTeX()
				ar.BestSize = bestThisAttempt.Size()
				if err := e.save(ctx, bestThisAttempt); err != nil {
					return FinalReport{}, err
				}
			}
			hallOfFame = append(hallOfFame, ar)
			e.logger.Info("attempt finished",
				"attempt", attempt, "generations", attemptGens, "score", ar.BestScore, "program", ar.BestInfix)
		}

		if bestThisAttempt != nil && score.Better(bestThisAttemptScore, globalBestScore, minimize) {
			globalBest = bestThisAttempt
			globalBestScore = bestThisAttemptScore
		}

		if e.cfg.OutDir != "" && len(hallOfFame) > 0 {
			e.writeLatex(hallOfFame)
		}

		switch {
		case reachedTarget:
			stopped = "target"
			break run
		case stopped == "cancelled":
			break run
		}
	}

	finalReport := FinalReport{
		RunID:       e.runID,
		Config:      e.cfg,
		BestScore:   Score(globalBestScore),
		Evaluations: int(e.evaluations.Load()),
		Stopped:     stopped,
		Minimize:    e.env.Minimize,
		Attempts:    hallOfFame,
	}
	if e.cfg.Verbose {
		finalReport.Generations = genReports
	}
	if globalBest != nil {
		finalReport.BestProgram = globalBest.String()
		finalReport.BestInfix = globalBest.Infix()
		finalReport.BestLaTeX = globalBest.LaTeX()
	}
	return finalReport, nil
}

// evaluatePopulation scores all programs in parallel. A program that fails to
// score gets the worst score; the number of failures is returned.
func (e *Engine) evaluatePopulation(pop []*prg.Program) ([]float64, int) {
	start := time.Now()
	n := len(pop)
	scores := make([]float64, n)
	var failures atomic.Int64

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	type job struct {
		idx     int
		program *prg.Program
	}

	jobs := make(chan job, n)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				s, err := e.scorer.Score(j.program)
				if err != nil {
					s = score.Worst(e.env.Minimize)
					failures.Add(1)
				}
				j.program.Score = s
				j.program.AdjustedScore = s
				scores[j.idx] = s
			}
		}()
	}

	for i, p := range pop {
		jobs <- job{idx: i, program: p}
	}
	close(jobs)
	wg.Wait()

	failed := int(failures.Load())
	e.evaluations.Add(int64(n))
	evaluationsTotal.WithLabelValues("ok").Add(float64(n - failed))
	evaluationsTotal.WithLabelValues("failed").Add(float64(failed))
	evaluationDuration.Observe(time.Since(start).Seconds())
	return scores, failed
}

func (e *Engine) save(ctx context.Context, p *prg.Program) error {
	if e.store == nil {
		return nil
	}
	rec, err := store.NewRecord(p, e.runID)
	if err != nil {
		return err
	}
	if err := e.store.SaveProgram(ctx, rec); err != nil {
		return fmt.Errorf("save program %s: %w", p.ID, err)
	}
	return nil
}

// writeLatex writes the hall of fame after each attempt so it survives an
// interrupted run, compiling it when pdflatex is installed.
func (e *Engine) writeLatex(hallOfFame []AttemptResult) {
	base := fmt.Sprintf("%s_%s_%s", e.cfg.Target, e.cfg.Pool, e.cfg.Strategy)
	absOut, err := filepath.Abs(e.cfg.OutDir)
	if err != nil {
		e.logger.Error("resolve output dir", "dir", e.cfg.OutDir, "err", err)
		return
	}
	texPath := filepath.Join(absOut, base+".tex")
	f, err := os.Create(texPath)
	if err != nil {
		e.logger.Error("create hall of fame", "path", texPath, "err", err)
		return
	}
	WriteHallOfFameLatex(f, hallOfFame, e.cfg, e.env.Minimize)
	if err := f.Close(); err != nil {
		e.logger.Error("write hall of fame", "path", texPath, "err", err)
		return
	}
	e.logger.Info("wrote hall of fame", "path", texPath)

	pdflatex, err := exec.LookPath("pdflatex")
	if err != nil {
		return
	}
	cmd := exec.Command(pdflatex, "-interaction=nonstopmode", base+".tex")
	cmd.Dir = absOut
	if out, err := cmd.CombinedOutput(); err != nil {
		e.logger.Warn("pdflatex failed", "err", err, "output", string(out))
	}
	for _, ext := range []string{".aux", ".log"} {
		os.Remove(filepath.Join(absOut, base+ext))
	}
}
