package prg

import (
	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// Checker is the legality gate run after every structural edit. A zero
// limit means no limit.
type Checker struct {
	MaxDepth int
	MaxSize  int
}

// IsValid asks the root template whether the tree can return the program's
// declared type. The template checks its own subtree, so this covers arity
// and operand types all the way down. Illegal programs are a normal outcome:
// the result is false, never an error.
func (c Checker) IsValid(p *Program) bool {
	root := p.Root()
	if root == tree.None {
		return false
	}
	if !c.withinLimits(p) {
		return false
	}
	t := p.TemplateOf(root)
	if t == nil {
		return false
	}
	return t.ReturnsType(p, root, p.ReturnType)
}

func (c Checker) withinLimits(p *Program) bool {
	if c.MaxSize > 0 && p.Size() > c.MaxSize {
		return false
	}
	if c.MaxDepth > 0 && p.Depth() > c.MaxDepth {
		return false
	}
	return true
}

var narrowestFirst = []expr.ValueType{expr.Int, expr.Float, expr.Bool, expr.String}

// NodeType returns the narrowest type the subtree at id can legally return.
// Int is tried before float, so a replacement grown for the result stays
// legal wherever the old subtree was.
func (p *Program) NodeType(id tree.NodeID) (expr.ValueType, bool) {
	t := p.TemplateOf(id)
	if t == nil {
		return expr.Float, false
	}
	for _, want := range narrowestFirst {
		if t.ReturnsType(p, id, want) {
			return want, true
		}
	}
	return expr.Float, false
}
