package pool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/score"
)

func newGenerator(t *testing.T, name string, result expr.ValueType) *Generator {
	t.Helper()
	p, err := Get(name)
	if err != nil {
		t.Fatal(err)
	}
	ctx := prg.NewContext(p.Catalog(), result)
	require.NoError(t, ctx.DefineVariable("x", expr.Float))
	require.NoError(t, ctx.DefineVariable("n", expr.Int))
	return NewGenerator(ctx, p)
}

// checkPool generates many trees and verifies every one is legal and that
// enough of them evaluate cleanly at x=2, n=3.
func checkPool(t *testing.T, name string, minRate float64) {
	g := newGenerator(t, name, expr.Float)
	rng := rand.New(rand.NewSource(42))

	successes := 0
	total := 1000
	for i := 0; i < total; i++ {
		p, err := g.Generate(rng, 4)
		if err != nil {
			t.Fatal(err)
		}
		if !(prg.Checker{MaxDepth: 4}).IsValid(p) {
			t.Fatalf("generated program is not legal: %s", p)
		}
		if _, err := p.Compute([]float64{2, 3}); err == nil {
			successes++
		}
	}

	if float64(successes)/float64(total) < minRate {
		t.Errorf("Only %d/%d trees evaluated successfully", successes, total)
	}
	t.Logf("%s pool: %d/%d trees evaluated cleanly", name, successes, total)
}

func TestConservativePool(t *testing.T) { checkPool(t, "conservative", 0.9) }

func TestModeratePool(t *testing.T) { checkPool(t, "moderate", 0.5) }

func TestKitchenSinkPool(t *testing.T) { checkPool(t, "kitchensink", 0.3) }

func TestGenerateTypedPrograms(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, want := range []expr.ValueType{expr.Int, expr.Bool, expr.String} {
		g := newGenerator(t, "kitchensink", want)
		for i := 0; i < 200; i++ {
			p, err := g.Generate(rng, 5)
			require.NoError(t, err)
			assert.True(t, prg.Checker{}.IsValid(p), "%s: %s", want, p)
		}
	}
}

func TestGeneratedProgramsRoundTripInfix(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, want := range []expr.ValueType{expr.Float, expr.Int, expr.Bool, expr.String} {
		g := newGenerator(t, "kitchensink", want)
		for i := 0; i < 300; i++ {
			p, err := g.Generate(rng, 5)
			require.NoError(t, err)
			back, err := prg.ParseInfix(p.Context(), p.Infix())
			require.NoError(t, err, p.Infix())
			assert.Equal(t, p.String(), back.String(), p.Infix())
		}
	}
}

func TestAttemptRejectsFailingPrograms(t *testing.T) {
	g := newGenerator(t, "kitchensink", expr.Float)
	g.Checker = prg.Checker{MaxSize: 15}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		p, err := g.Attempt(rng, 5, score.ZeroEval{})
		require.NoError(t, err)
		assert.LessOrEqual(t, p.Size(), 15)
		_, set := p.Variable("x")
		assert.False(t, set, "variables are cleared after the check")
		_, err = score.ZeroEval{}.Score(p)
		assert.NoError(t, err, p.String())
	}
}

func TestAttemptGivesUp(t *testing.T) {
	g := newGenerator(t, "conservative", expr.Float)
	g.MaxAttempts = 5
	g.Checker = prg.Checker{MaxSize: 1}
	g.VarBias = 0
	g.LeafBias = 0
	_, err := g.Attempt(rand.New(rand.NewSource(1)), 3, score.Zero{})
	assert.ErrorIs(t, err, ErrNoProgram)
}

func TestNoTerminal(t *testing.T) {
	plus, err := expr.Standard().Lookup("+", 2)
	require.NoError(t, err)
	cat, err := expr.NewCatalog(plus)
	require.NoError(t, err)
	g := NewGenerator(prg.NewContext(cat, expr.Float), NewConservative())
	_, err = g.Generate(rand.New(rand.NewSource(1)), 3)
	assert.ErrorIs(t, err, ErrNoTerminal)
}

func TestPoolRegistry(t *testing.T) {
	names := Names()
	if len(names) < 3 {
		t.Errorf("Expected at least 3 registered pools, got %d", len(names))
	}

	for _, name := range names {
		p, err := Get(name)
		if err != nil {
			t.Errorf("Get(%q) failed: %v", name, err)
			continue
		}
		if p.Name() != name {
			t.Errorf("Pool name mismatch: %q vs %q", p.Name(), name)
		}
		if _, ok := p.Catalog().Index(expr.ConstName, 0); !ok {
			t.Errorf("Pool %q has no constant leaf", name)
		}
	}
}

func TestUnknownPool(t *testing.T) {
	_, err := Get("nonexistent")
	if err == nil {
		t.Error("Expected error for unknown pool")
	}
}
