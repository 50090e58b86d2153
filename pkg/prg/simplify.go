package prg

import (
	"math"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// Simplify folds constant subtrees into single constants and applies a few
// identity rewrites (x+0, x*1, x/1, -(-x)). Subtrees whose evaluation fails
// are left alone. Legality of the program is preserved.
func (p *Program) Simplify() error {
	root := p.Root()
	if root == tree.None {
		return nil
	}
	if _, ok := p.ctx.catalog.Index(expr.ConstName, 0); !ok {
		return nil
	}
	next, err := p.simplify(root)
	if err != nil {
		return err
	}
	if next != root {
		return p.ReplaceNode(root, next)
	}
	return nil
}

// simplify rewrites the subtree at id and returns the node that should take
// its slot: id itself or a detached replacement.
func (p *Program) simplify(id tree.NodeID) (tree.NodeID, error) {
	for _, c := range p.tree.ChildNodes(id) {
		nc, err := p.simplify(c)
		if err != nil {
			return tree.None, err
		}
		if nc != c {
			if err := p.ReplaceNode(c, nc); err != nil {
				return tree.None, err
			}
		}
	}

	t := p.Template(id)
	if t.IsTerminal() {
		return id, nil
	}
	if p.constantSubtree(id) {
		if v, err := p.evaluate(id); err == nil && foldable(v) {
			return p.Const(v)
		}
		return id, nil
	}
	return p.rewriteIdentity(id, t)
}

func (p *Program) rewriteIdentity(id tree.NodeID, t *expr.Template) (tree.NodeID, error) {
	children := p.tree.ChildNodes(id)
	switch {
	case t.Name == "-" && len(children) == 1:
		inner := children[0]
		if it := p.Template(inner); it.Name == "-" && p.tree.ChildCount(inner) == 1 {
			return p.detach(p.tree.ChildNode(inner, 0)), nil
		}
	case len(children) == 2:
		l, r := children[0], children[1]
		switch t.Name {
		case "+":
			if p.isConst(r, 0) {
				return p.detach(l), nil
			}
			if p.isConst(l, 0) {
				return p.detach(r), nil
			}
		case "-":
			if p.isConst(r, 0) {
				return p.detach(l), nil
			}
		case "*":
			if p.isConst(r, 1) {
				return p.detach(l), nil
			}
			if p.isConst(l, 1) {
				return p.detach(r), nil
			}
		case "/":
			if p.isConst(r, 1) {
				return p.detach(l), nil
			}
		}
	}
	return id, nil
}

// detach copies an attached subtree so it can be placed elsewhere. The
// original becomes garbage once its parent is replaced.
func (p *Program) detach(id tree.NodeID) tree.NodeID {
	return p.tree.CopySubtree(p.tree, id)
}

// isConst reports whether id is an int constant equal to k. Only ints are
// matched so a rewrite never narrows a float expression to an int one.
func (p *Program) isConst(id tree.NodeID, k int64) bool {
	if p.Template(id).Data != expr.ConstData {
		return false
	}
	v := p.tree.Value(id).Data
	return v.Type() == expr.Int && v.Int() == k
}

func (p *Program) constantSubtree(id tree.NodeID) bool {
	constant := true
	tree.TraverseUntil(p.tree, id, func(n tree.NodeID) bool {
		if p.Template(n).Data == expr.VarData {
			constant = false
		}
		return constant
	})
	return constant
}

func foldable(v expr.Value) bool {
	if v.Type() == expr.Float {
		return !math.IsNaN(v.Float()) && !math.IsInf(v.Float(), 0)
	}
	return true
}
