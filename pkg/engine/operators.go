package engine

import (
	"sort"

	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/strategy"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

type operatorBuilder func(g *pool.Generator, index tree.IndexStrategy) strategy.Operator

// operatorBuilders maps config names to operators.
var operatorBuilders = map[string]operatorBuilder{
	"crossover": func(_ *pool.Generator, index tree.IndexStrategy) strategy.Operator {
		return strategy.SubtreeCrossover{Index: index}
	},
	"subtree": func(g *pool.Generator, index tree.IndexStrategy) strategy.Operator {
		return strategy.SubtreeMutation{Generator: g, Index: index}
	},
	"point": func(g *pool.Generator, index tree.IndexStrategy) strategy.Operator {
		return strategy.PointMutation{Generator: g, Index: index}
	},
	"const": func(*pool.Generator, tree.IndexStrategy) strategy.Operator {
		return strategy.ConstMutation{Sigma: 0.5}
	},
	"hoist": func(_ *pool.Generator, index tree.IndexStrategy) strategy.Operator {
		return strategy.HoistMutation{Index: index}
	},
	"shrink": func(_ *pool.Generator, index tree.IndexStrategy) strategy.Operator {
		return strategy.ShrinkMutation{Index: index}
	},
}

// OperatorNames returns the operator names a config may weight, sorted.
func OperatorNames() []string {
	names := make([]string, 0, len(operatorBuilders))
	for k := range operatorBuilders {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func buildOperators(cfg Config, g *pool.Generator, index tree.IndexStrategy) (*strategy.OperatorList, error) {
	names := cfg.operatorNames()
	ops := make([]strategy.Operator, 0, len(names))
	weights := make([]float64, 0, len(names))
	for _, name := range names {
		ops = append(ops, operatorBuilders[name](g, index))
		weights = append(weights, cfg.Operators[name])
	}
	return strategy.Normalized(ops, weights)
}
