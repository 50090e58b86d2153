package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/store"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Population = 30
	cfg.Generations = 10
	cfg.Seed = 42
	cfg.Workers = 2
	cfg.StagnationLimit = 0
	cfg.TargetScore = -1
	return cfg
}

func TestEngine_SmallRun(t *testing.T) {
	e, err := New(smallConfig(), nil)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.BestProgram, "Expected a best program")
	assert.False(t, math.IsInf(float64(report.BestScore), 0), "Expected a finite best score")
	assert.Len(t, report.Attempts, 1)
	assert.Equal(t, "budget", report.Stopped)
	assert.Equal(t, e.RunID(), report.RunID)
	assert.Equal(t, 30*10, report.Evaluations)
	assert.True(t, report.Minimize)

	t.Logf("Best after %d gens: score=%.6g, program=%s",
		report.Attempts[0].Generations, float64(report.BestScore), report.BestInfix)
}

func TestEngine_Restart(t *testing.T) {
	cfg := smallConfig()
	cfg.Target = "sine"
	cfg.Population = 10
	cfg.Generations = 40
	cfg.StagnationLimit = 1
	cfg.Seed = 99

	e, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	// Any generation without strict improvement restarts.
	require.GreaterOrEqual(t, len(report.Attempts), 2)

	totalGens := 0
	for i, a := range report.Attempts {
		assert.Equal(t, i+1, a.Attempt)
		assert.NotZero(t, a.Generations)
		assert.NotEmpty(t, a.BestProgram)
		assert.LessOrEqual(t, a.BestFoundAtGen, a.Generations)
		assert.GreaterOrEqual(t, float64(a.BestScore), float64(report.BestScore))
		totalGens += a.Generations
	}
	assert.LessOrEqual(t, totalGens, cfg.Generations)

	t.Logf("Completed %d attempts, total gens %d/%d, best=%.6g",
		len(report.Attempts), totalGens, cfg.Generations, float64(report.BestScore))
}

func TestEngine_HillClimb(t *testing.T) {
	cfg := smallConfig()
	cfg.Strategy = "hillclimb"
	cfg.Pool = "conservative"

	e, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.BestProgram)
}

func TestEngine_LegacyIndex(t *testing.T) {
	cfg := smallConfig()
	cfg.Index = "legacy"
	cfg.Pool = "kitchensink"

	e, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.BestProgram)
}

func TestEngine_StopsAtTargetScore(t *testing.T) {
	cfg := smallConfig()
	cfg.TargetScore = 1e9

	e, err := New(cfg, nil)
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "target", report.Stopped)
	require.Len(t, report.Attempts, 1)
	assert.Equal(t, 1, report.Attempts[0].Generations)
}

func TestEngine_Cancelled(t *testing.T) {
	e, err := New(smallConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", report.Stopped)
	assert.Empty(t, report.Attempts)
	assert.Empty(t, report.BestProgram)
}

func TestEngine_SavesAttemptBests(t *testing.T) {
	cfg := smallConfig()
	cfg.StagnationLimit = 2
	cfg.Generations = 20

	s := store.NewMemoryStore()
	require.NoError(t, s.Init(context.Background()))

	e, err := New(cfg, nil)
	require.NoError(t, err)
	report, err := e.WithStore(s).Run(context.Background())
	require.NoError(t, err)

	records, err := s.ListPrograms(context.Background(), report.RunID)
	require.NoError(t, err)
	require.Len(t, records, len(report.Attempts))

	p, err := pool.Get(cfg.Pool)
	require.NoError(t, err)
	for i, rec := range records {
		assert.Equal(t, report.Attempts[i].BestID, rec.ID)
		prog, err := rec.Program(ProgramContext(p))
		require.NoError(t, err)
		rescored, err := e.scorer.Score(prog)
		require.NoError(t, err)
		assert.InDelta(t, float64(report.Attempts[i].BestScore), rescored, 1e-9)
	}
}

func TestEngine_InvalidNames(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"target":   func(c *Config) { c.Target = "nonexistent" },
		"strategy": func(c *Config) { c.Strategy = "nonexistent" },
		"pool":     func(c *Config) { c.Pool = "nonexistent" },
		"index":    func(c *Config) { c.Index = "nonexistent" },
		"operator": func(c *Config) { c.Operators = map[string]float64{"nonexistent": 1} },
		"format":   func(c *Config) { c.Format = "xml" },
		"weights":  func(c *Config) { c.Operators = map[string]float64{"crossover": 0} },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(cfg, nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestEngine_JSONFormat(t *testing.T) {
	cfg := smallConfig()
	cfg.Generations = 3
	cfg.Format = "json"
	cfg.Verbose = true

	e, err := New(cfg, nil)
	require.NoError(t, err)
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Generations, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteJSONFinal(&buf, report))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded["run_id"])
	assert.Equal(t, report.BestProgram, decoded["best_program"])
}

func TestEngine_WritesLatex(t *testing.T) {
	cfg := smallConfig()
	cfg.Generations = 2
	cfg.OutDir = t.TempDir()

	e, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.OutDir, "quadratic_moderate_tournament.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `\begin{document}`)
	assert.Contains(t, string(data), `f(x) =`)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yaml := `
target: cubic
population: 50
index: legacy
operators:
  crossover: 3
  shrink: 1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cubic", cfg.Target)
	assert.Equal(t, 50, cfg.Population)
	assert.Equal(t, "legacy", cfg.Index)
	assert.Equal(t, map[string]float64{"crossover": 3, "shrink": 1}, cfg.Operators)
	assert.Equal(t, DefaultConfig().Pool, cfg.Pool, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("population: [1"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestScoreMarshalJSON(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{0.25, "0.25"},
		{math.Inf(1), "null"},
		{math.NaN(), "null"},
	} {
		data, err := json.Marshal(Score(tc.in))
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(data))
	}
}

func TestTextOutput(t *testing.T) {
	attempts := []AttemptResult{
		{Attempt: 1, BestScore: 2, BestInfix: "x", BestProgram: "x"},
		{Attempt: 2, BestScore: 0.5, BestInfix: "(x * x)", BestProgram: "(* x x)"},
	}
	var buf bytes.Buffer
	WriteTextFinal(&buf, FinalReport{RunID: "r1", Config: DefaultConfig(), BestScore: 0.5, Minimize: true, Attempts: attempts})
	out := buf.String()
	assert.Contains(t, out, "FINAL RESULT")
	assert.Less(t, strings.Index(out, "[attempt 2"), strings.Index(out, "[attempt 1"), "best attempt listed first")
}

func TestHallOfFameFollowsDirection(t *testing.T) {
	attempts := []AttemptResult{
		{Attempt: 1, BestScore: 2, BestInfix: "x", BestProgram: "x"},
		{Attempt: 2, BestScore: 0.5, BestInfix: "(x * x)", BestProgram: "(* x x)"},
	}

	var buf bytes.Buffer
	WriteHallOfFame(&buf, attempts, false)
	out := buf.String()
	assert.Less(t, strings.Index(out, "[attempt 1"), strings.Index(out, "[attempt 2"), "higher score first when maximizing")

	buf.Reset()
	WriteHallOfFameLatex(&buf, attempts, DefaultConfig(), false)
	tex := buf.String()
	assert.Less(t, strings.Index(tex, "attempt 1,"), strings.Index(tex, "attempt 2,"))

	buf.Reset()
	WriteHallOfFameLatex(&buf, attempts, DefaultConfig(), true)
	tex = buf.String()
	assert.Less(t, strings.Index(tex, "attempt 2,"), strings.Index(tex, "attempt 1,"))
}

func TestVerb(t *testing.T) {
	assert.Equal(t, `\verb|(+ x 1)|`, verb("(+ x 1)"))
	assert.Equal(t, `\verb!(| a b)!`, verb("(| a b)"))
}
