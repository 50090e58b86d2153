package strategy

import (
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/prg"
)

const hillclimbInjectionRate = 0.05 // fraction of population replaced with random each gen

func init() {
	Register("hillclimb", func() Strategy { return &HillClimbStrategy{} })
}

// HillClimbStrategy implements directed hill-climbing with population.
// Each program is cloned and mutated by a single-parent operator.
// Periodically injects random programs to escape local optima.
type HillClimbStrategy struct{}

func (s *HillClimbStrategy) Name() string { return "hillclimb" }

func (s *HillClimbStrategy) Initialize(env Env, rng *rand.Rand, popSize int) ([]*prg.Program, error) {
	return initialize(env, rng, popSize)
}

func (s *HillClimbStrategy) Evolve(
	population []*prg.Program,
	scores []float64,
	env Env,
	rng *rand.Rand,
) ([]*prg.Program, error) {
	n := len(population)
	next := make([]*prg.Program, n)

	for i := 0; i < n; i++ {
		var child *prg.Program
		if op, ok := env.Operators.PickFor(rng, 1); ok {
			offspring := make([]*prg.Program, op.OffspringProduced())
			err := op.Apply(rng, population, i, offspring, 0)
			if err != nil && !recoverable(err) {
				return nil, err
			}
			child = offspring[0]
		}
		c, err := accept(child, env, rng)
		if err != nil {
			return nil, err
		}
		next[i] = c
	}

	ranked := rank(scores, env.Minimize)

	// Replace the worst programs with random injection
	injectionCount := int(float64(n) * hillclimbInjectionRate)
	if injectionCount < 1 {
		injectionCount = 1
	}
	for i := 0; i < injectionCount && i < n-1; i++ {
		p, err := randomProgram(env, rng)
		if err != nil {
			return nil, err
		}
		next[ranked[n-1-i]] = p
	}

	// Elitism: keep the best from the old generation
	bestIdx := ranked[0]
	next[bestIdx] = population[bestIdx].Clone()

	return next, nil
}
