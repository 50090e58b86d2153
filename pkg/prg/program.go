package prg

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

var (
	ErrNoRoot          = errors.New("program has no root")
	ErrMalformed       = errors.New("node child count does not match template arity")
	ErrUnknownVar      = errors.New("variable not defined in context")
	ErrInputCount      = errors.New("input count does not match defined variables")
	ErrResultType      = errors.New("program result does not match declared type")
	ErrForeignTemplate = errors.New("template missing from target catalog")
)

// Op is the value stored in each tree node: a catalog index and the
// constant payload leaves carry.
type Op struct {
	Template int
	Data     expr.Value
}

// Program is a typed program tree and the genome the evolutionary operators
// work on. It is also directly executable, so the identity codec serves it.
//
// A Program must not be mutated from more than one goroutine at a time.
type Program struct {
	ID         string
	ReturnType expr.ValueType

	// Score and AdjustedScore are written by the driver after scoring.
	Score           float64
	AdjustedScore   float64
	BirthGeneration int

	ctx  *Context
	tree *tree.Tree[Op]
	vars map[string]expr.Value
}

// New creates an empty program typed with the context's result type.
func New(ctx *Context) *Program {
	return &Program{
		ID:            uuid.NewString(),
		ReturnType:    ctx.Result(),
		Score:         math.NaN(),
		AdjustedScore: math.NaN(),
		ctx:           ctx,
		tree:          tree.Empty[Op](),
		vars:          make(map[string]expr.Value),
	}
}

func (p *Program) Context() *Context { return p.ctx }

// Tree exposes the underlying arena for read access by operators.
func (p *Program) Tree() *tree.Tree[Op] { return p.tree }

func (p *Program) Root() tree.NodeID { return p.tree.Root() }

func (p *Program) SetRoot(id tree.NodeID) error { return p.tree.SetRoot(id) }

// Size returns the number of nodes reachable from the root.
func (p *Program) Size() int {
	if p.tree.Root() == tree.None {
		return 0
	}
	return p.tree.Size(p.tree.Root())
}

func (p *Program) Depth() int {
	if p.tree.Root() == tree.None {
		return 0
	}
	return p.tree.Depth(p.tree.Root())
}

// Clone returns an independent deep copy with a fresh ID. Scores are reset.
func (p *Program) Clone() *Program {
	c := &Program{
		ID:              uuid.NewString(),
		ReturnType:      p.ReturnType,
		Score:           math.NaN(),
		AdjustedScore:   math.NaN(),
		BirthGeneration: p.BirthGeneration,
		ctx:             p.ctx,
		vars:            make(map[string]expr.Value, len(p.vars)),
	}
	if p.tree.Root() == tree.None {
		c.tree = tree.Empty[Op]()
	} else {
		c.tree = p.tree.Clone()
	}
	for k, v := range p.vars {
		c.vars[k] = v
	}
	return c
}

// FindNode returns the node at a pre-order index, 0 being the root.
func (p *Program) FindNode(index int) (tree.NodeID, bool) {
	if p.tree.Root() == tree.None {
		return tree.None, false
	}
	return tree.FindIndex(p.tree, p.tree.Root(), index)
}

// ReplaceNode swaps the subtree at target for the detached subtree with.
func (p *Program) ReplaceNode(target, with tree.NodeID) error {
	return p.tree.Replace(target, with)
}

// Graft copies the subtree at id of src into p and returns the detached
// copy. Programs built on different catalogs are remapped by template key.
func (p *Program) Graft(src *Program, id tree.NodeID) (tree.NodeID, error) {
	if src.ctx.catalog == p.ctx.catalog {
		return p.tree.CopySubtree(src.tree, id), nil
	}
	remap := make(map[int]int)
	var check error
	tree.Traverse(src.tree, id, func(n tree.NodeID) bool {
		op := src.tree.Value(n)
		if _, done := remap[op.Template]; done || check != nil {
			return true
		}
		t := src.ctx.catalog.At(op.Template)
		idx, ok := p.ctx.catalog.Index(t.Name, t.Arity())
		if !ok {
			check = fmt.Errorf("%w: %s", ErrForeignTemplate, t.Key())
			return false
		}
		remap[op.Template] = idx
		return true
	})
	if check != nil {
		return tree.None, check
	}
	copied := p.tree.CopySubtree(src.tree, id)
	tree.Traverse(p.tree, copied, func(n tree.NodeID) bool {
		op := p.tree.Value(n)
		op.Template = remap[op.Template]
		p.tree.SetValue(n, op)
		return true
	})
	return copied, nil
}

// Template returns the template of node id.
func (p *Program) Template(id tree.NodeID) *expr.Template {
	return p.ctx.catalog.At(p.tree.Value(id).Template)
}

// SetVariable assigns a value to a variable defined in the context.
func (p *Program) SetVariable(name string, v expr.Value) error {
	if _, ok := p.ctx.VariableType(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVar, name)
	}
	p.vars[name] = v
	return nil
}

func (p *Program) Variable(name string) (expr.Value, bool) {
	v, ok := p.vars[name]
	return v, ok
}

// ClearVariables forgets every assigned value.
func (p *Program) ClearVariables() {
	clear(p.vars)
}

// Evaluate runs the program against its current variable values.
func (p *Program) Evaluate() (expr.Value, error) {
	if p.tree.Root() == tree.None {
		return expr.Value{}, ErrNoRoot
	}
	return p.evaluate(p.tree.Root())
}

// Compute assigns inputs to the defined variables in definition order,
// evaluates, and converts the result to a float. The result must be
// compatible with the declared return type.
func (p *Program) Compute(inputs []float64) (float64, error) {
	defined := p.ctx.variables
	if len(inputs) != len(defined) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInputCount, len(inputs), len(defined))
	}
	for i, v := range defined {
		switch v.Type {
		case expr.Int:
			p.vars[v.Name] = expr.IntValue(int64(inputs[i]))
		case expr.Bool:
			p.vars[v.Name] = expr.BoolValue(inputs[i] != 0)
		default:
			p.vars[v.Name] = expr.FloatValue(inputs[i])
		}
	}
	out, err := p.Evaluate()
	if err != nil {
		return 0, err
	}
	if !expr.Types(p.ReturnType).Accepts(out.Type()) {
		return 0, fmt.Errorf("%w: produced %s, want %s", ErrResultType, out.Type(), p.ReturnType)
	}
	return out.Float(), nil
}

func (p *Program) evaluate(id tree.NodeID) (expr.Value, error) {
	t := p.TemplateOf(id)
	if t == nil {
		return expr.Value{}, fmt.Errorf("%w: index %d", expr.ErrUnknownTemplate, p.tree.Value(id).Template)
	}
	if p.tree.ChildCount(id) != t.Arity() {
		return expr.Value{}, fmt.Errorf("%w: %s has %d children", ErrMalformed, t.Key(), p.tree.ChildCount(id))
	}
	if t.Eval == nil {
		return expr.Value{}, fmt.Errorf("template %s cannot be evaluated", t.Key())
	}
	return t.Eval(evalNode{p: p, id: id})
}

type evalNode struct {
	p  *Program
	id tree.NodeID
}

func (n evalNode) Data() expr.Value { return n.p.tree.Value(n.id).Data }

func (n evalNode) Arity() int { return n.p.tree.ChildCount(n.id) }

func (n evalNode) Arg(i int) (expr.Value, error) {
	return n.p.evaluate(n.p.tree.ChildNode(n.id, i))
}

func (n evalNode) Variable(name string) (expr.Value, bool) { return n.p.Variable(name) }

// Shape implementation used by template legality checks.

func (p *Program) TemplateOf(id tree.NodeID) *expr.Template {
	idx := p.tree.Value(id).Template
	if idx < 0 || idx >= p.ctx.catalog.Len() {
		return nil
	}
	return p.ctx.catalog.At(idx)
}

func (p *Program) DataOf(id tree.NodeID) expr.Value { return p.tree.Value(id).Data }

func (p *Program) Children(id tree.NodeID) []tree.NodeID { return p.tree.ChildNodes(id) }

func (p *Program) VariableType(name string) (expr.ValueType, bool) {
	return p.ctx.VariableType(name)
}

var _ expr.Shape = (*Program)(nil)
