package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/score"
)

// Env is what a strategy needs besides the population itself.
type Env struct {
	Generator  *pool.Generator
	Operators  *OperatorList
	Checker    prg.Checker
	Minimize   bool
	MaxDepth   int  // depth of freshly generated programs
	Simplify   bool // fold constants in offspring before validation
	Generation int
}

// Strategy defines an evolutionary strategy for evolving programs.
type Strategy interface {
	Name() string
	Initialize(env Env, rng *rand.Rand, popSize int) ([]*prg.Program, error)
	Evolve(population []*prg.Program, scores []float64, env Env, rng *rand.Rand) ([]*prg.Program, error)
}

var registry = map[string]func() Strategy{}

// Register adds a strategy constructor to the registry.
func Register(name string, constructor func() Strategy) {
	registry[name] = constructor
}

// Get returns a strategy by name.
func Get(name string) (Strategy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return ctor(), nil
}

// Names returns all registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// randomProgram generates a legal program that survives a run with every
// variable at zero.
func randomProgram(env Env, rng *rand.Rand) (*prg.Program, error) {
	p, err := env.Generator.Attempt(rng, env.MaxDepth, score.ZeroEval{})
	if err != nil {
		return nil, err
	}
	p.BirthGeneration = env.Generation
	return p, nil
}

func initialize(env Env, rng *rand.Rand, popSize int) ([]*prg.Program, error) {
	pop := make([]*prg.Program, popSize)
	for i := range pop {
		p, err := randomProgram(env, rng)
		if err != nil {
			return nil, err
		}
		pop[i] = p
	}
	return pop, nil
}

// accept runs the legality gate on an offspring, replacing it with a fresh
// random program when it fails.
func accept(child *prg.Program, env Env, rng *rand.Rand) (*prg.Program, error) {
	if child != nil && env.Simplify {
		if err := child.Simplify(); err != nil {
			return nil, err
		}
	}
	if child != nil && env.Checker.IsValid(child) {
		child.BirthGeneration = env.Generation
		return child, nil
	}
	return randomProgram(env, rng)
}

// recoverable reports whether an operator failure should just discard the
// offspring rather than stop the run.
func recoverable(err error) bool {
	return errors.Is(err, ErrNoCrossoverPoint) || errors.Is(err, ErrNoMutationPoint)
}

// rank returns population indices, best first.
func rank(scores []float64, minimize bool) []int {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return score.Better(scores[indices[a]], scores[indices[b]], minimize)
	})
	return indices
}
