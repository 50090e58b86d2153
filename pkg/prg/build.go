package prg

import (
	"fmt"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// Node allocates a detached node for the template at index and attaches the
// given children. Nothing is type checked here; run a Checker afterwards.
func (p *Program) Node(template int, data expr.Value, children ...tree.NodeID) (tree.NodeID, error) {
	if template < 0 || template >= p.ctx.catalog.Len() {
		return tree.None, fmt.Errorf("%w: index %d", expr.ErrUnknownTemplate, template)
	}
	id := p.tree.NewNode(Op{Template: template, Data: data})
	if len(children) > 0 {
		if err := p.tree.AddChildNodes(id, children...); err != nil {
			return tree.None, err
		}
	}
	return id, nil
}

// Const allocates a detached constant leaf.
func (p *Program) Const(v expr.Value) (tree.NodeID, error) {
	idx, err := p.leafIndex(expr.ConstName)
	if err != nil {
		return tree.None, err
	}
	return p.Node(idx, v)
}

// Var allocates a detached leaf reading a defined variable.
func (p *Program) Var(name string) (tree.NodeID, error) {
	if _, ok := p.ctx.VariableType(name); !ok {
		return tree.None, fmt.Errorf("%w: %s", ErrUnknownVar, name)
	}
	idx, err := p.leafIndex(expr.VarName)
	if err != nil {
		return tree.None, err
	}
	return p.Node(idx, expr.StringValue(name))
}

// Call allocates a node for the template called name whose arity matches
// len(args) and attaches args as its children.
func (p *Program) Call(name string, args ...tree.NodeID) (tree.NodeID, error) {
	idx, ok := p.ctx.catalog.Index(name, len(args))
	if !ok {
		return tree.None, fmt.Errorf("%w: %s/%d", expr.ErrUnknownTemplate, name, len(args))
	}
	return p.Node(idx, expr.Value{}, args...)
}

func (p *Program) leafIndex(name string) (int, error) {
	idx, ok := p.ctx.catalog.Index(name, 0)
	if !ok {
		return -1, fmt.Errorf("%w: %s", expr.ErrUnknownTemplate, name)
	}
	return idx, nil
}
