package pool

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/score"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

var (
	ErrNoTerminal = errors.New("no terminal can produce the requested type")
	ErrNoProgram  = errors.New("no acceptable program generated")
)

const (
	defaultLeafBias    = 0.4 // chance to stop early above the depth limit
	defaultVarBias     = 0.5 // chance a leaf reads a variable when one fits
	defaultMaxAttempts = 100
)

// Generator builds random typed programs with the grow method: each node is
// drawn from the templates able to return the type its slot wants, and the
// tree is cut off with a leaf at the depth limit.
type Generator struct {
	Context *prg.Context
	Pool    Pool
	Checker prg.Checker

	LeafBias    float64
	VarBias     float64
	MaxAttempts int
}

// NewGenerator returns a generator with default biases. The context's
// catalog should be the pool's catalog.
func NewGenerator(ctx *prg.Context, p Pool) *Generator {
	return &Generator{
		Context:     ctx,
		Pool:        p,
		LeafBias:    defaultLeafBias,
		VarBias:     defaultVarBias,
		MaxAttempts: defaultMaxAttempts,
	}
}

// Generate builds one program of at most maxDepth levels.
func (g *Generator) Generate(rng *rand.Rand, maxDepth int) (*prg.Program, error) {
	p := prg.New(g.Context)
	root, err := g.Grow(p, rng, g.Context.Result(), maxDepth)
	if err != nil {
		return nil, err
	}
	if err := p.SetRoot(root); err != nil {
		return nil, err
	}
	return p, nil
}

// Attempt keeps generating until a program passes the checker and scores
// without error. Scoring with score.ZeroEval rejects programs that cannot
// run at all.
func (g *Generator) Attempt(rng *rand.Rand, maxDepth int, s score.Scorer) (*prg.Program, error) {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	var last error
	for i := 0; i < attempts; i++ {
		p, err := g.Generate(rng, maxDepth)
		if err != nil {
			return nil, err
		}
		if !g.Checker.IsValid(p) {
			continue
		}
		if _, err := s.Score(p); err != nil {
			last = err
			continue
		}
		p.ClearVariables()
		return p, nil
	}
	if last != nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrNoProgram, attempts, last)
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrNoProgram, attempts)
}

// Grow builds a detached subtree inside p that returns want.
func (g *Generator) Grow(p *prg.Program, rng *rand.Rand, want expr.ValueType, maxDepth int) (tree.NodeID, error) {
	if maxDepth <= 1 || rng.Float64() < g.LeafBias {
		return g.leaf(p, rng, want)
	}
	cat := p.Context().Catalog()
	candidates := cat.Find(expr.Types(want), false, true)
	if len(candidates) == 0 {
		return g.leaf(p, rng, want)
	}
	idx := candidates[rng.Intn(len(candidates))]
	t := cat.At(idx)

	children := make([]tree.NodeID, t.Arity())
	for i, param := range t.Params {
		c, err := g.Grow(p, rng, childType(rng, param, want), maxDepth-1)
		if err != nil {
			return tree.None, err
		}
		children[i] = c
	}
	return p.Node(idx, expr.Value{}, children...)
}

// childType picks the type a child slot is grown for. Pass-through slots
// take the parent's type; an int producing template asked for a float keeps
// its children float, which the int rule widens.
func childType(rng *rand.Rand, param expr.Param, want expr.ValueType) expr.ValueType {
	if param.PassThrough && param.Types.Accepts(want) {
		return want
	}
	types := param.Types.List()
	return types[rng.Intn(len(types))]
}

func (g *Generator) leaf(p *prg.Program, rng *rand.Rand, want expr.ValueType) (tree.NodeID, error) {
	vars := p.Context().VariablesOfType(expr.Types(want))
	if len(vars) > 0 && rng.Float64() < g.VarBias {
		return p.Var(vars[rng.Intn(len(vars))].Name)
	}
	if _, ok := p.Context().Catalog().Index(expr.ConstName, 0); ok {
		return p.Const(g.Pool.RandomConst(rng, want))
	}
	if len(vars) > 0 {
		return p.Var(vars[rng.Intn(len(vars))].Name)
	}
	return tree.None, fmt.Errorf("%w: %s", ErrNoTerminal, want)
}
