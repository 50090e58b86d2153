package prg

import (
	"math"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// WeightedComplexity scores the program with heavier weight for operations
// that are more expensive to read (trig, powers, conditionals).
func (p *Program) WeightedComplexity() float64 {
	if p.Root() == tree.None {
		return 0
	}
	total := 0.0
	tree.Traverse(p.tree, p.Root(), func(id tree.NodeID) bool {
		total += p.nodeWeight(id)
		return true
	})
	return total
}

func (p *Program) nodeWeight(id tree.NodeID) float64 {
	t := p.Template(id)
	switch t.Data {
	case expr.VarData:
		return 1.0
	case expr.ConstData:
		v := p.tree.Value(id).Data
		if !v.IsNumeric() {
			return 1.0
		}
		mag := math.Abs(v.Float())
		if mag <= 10 || math.IsInf(mag, 0) || math.IsNaN(mag) {
			return 1.0
		}
		return 1.0 + math.Log10(mag)
	}
	switch t.Name {
	case "+", "-", "abs", "!":
		return 1.0
	case "*", "/", "%", "min", "max", "&", "|":
		return 1.5
	case "^", "sqrt":
		return 2.0
	case "sin", "cos", "tan", "exp", "log", "ifelse":
		return 3.0
	default:
		return 1.5
	}
}
