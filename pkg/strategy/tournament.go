package strategy

import (
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/score"
)

const (
	tournamentSize = 5
	eliteRate      = 0.05 // top 5% carried over
)

func init() {
	Register("tournament", func() Strategy { return &TournamentStrategy{} })
}

// TournamentStrategy implements tournament selection with weighted operators.
type TournamentStrategy struct{}

func (s *TournamentStrategy) Name() string { return "tournament" }

func (s *TournamentStrategy) Initialize(env Env, rng *rand.Rand, popSize int) ([]*prg.Program, error) {
	return initialize(env, rng, popSize)
}

func (s *TournamentStrategy) Evolve(
	population []*prg.Program,
	scores []float64,
	env Env,
	rng *rand.Rand,
) ([]*prg.Program, error) {
	n := len(population)
	next := make([]*prg.Program, 0, n)
	indices := rank(scores, env.Minimize)

	// Elitism: carry over top programs
	eliteCount := int(float64(n) * eliteRate)
	if eliteCount < 1 {
		eliteCount = 1
	}
	for i := 0; i < eliteCount && i < n; i++ {
		next = append(next, population[indices[i]].Clone())
	}

	// Fill rest via tournament selection + a weighted operator
	for len(next) < n {
		op := env.Operators.Pick(rng)
		parents := make([]*prg.Program, op.ParentsNeeded())
		for i := range parents {
			parents[i] = tournamentSelect(population, scores, env.Minimize, rng)
		}
		offspring := make([]*prg.Program, op.OffspringProduced())
		if err := op.Apply(rng, parents, 0, offspring, 0); err != nil && !recoverable(err) {
			return nil, err
		}

		for _, child := range offspring {
			if len(next) == n {
				break
			}
			c, err := accept(child, env, rng)
			if err != nil {
				return nil, err
			}
			next = append(next, c)
		}
	}

	return next, nil
}

func tournamentSelect(pop []*prg.Program, scores []float64, minimize bool, rng *rand.Rand) *prg.Program {
	bestIdx := rng.Intn(len(pop))
	bestScore := scores[bestIdx]

	for i := 1; i < tournamentSize; i++ {
		idx := rng.Intn(len(pop))
		if score.Better(scores[idx], bestScore, minimize) {
			bestIdx = idx
			bestScore = scores[idx]
		}
	}

	return pop[bestIdx]
}
