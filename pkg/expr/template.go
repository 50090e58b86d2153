package expr

import (
	"fmt"
	"strings"

	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// Kind tags how a template is rendered and generated.
type Kind int

const (
	Leaf Kind = iota
	Unary
	Operator // binary infix operator
	Function
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Unary:
		return "unary"
	case Operator:
		return "operator"
	default:
		return "function"
	}
}

// DataKind says what payload a leaf carries.
type DataKind int

const (
	NoData DataKind = iota
	ConstData
	VarData // payload is the variable name as a string value
)

// Param describes one argument slot.
type Param struct {
	Types TypeSet
	// PassThrough arguments must produce the type requested of the node
	// itself, e.g. both sides of + when an int result is wanted.
	PassThrough bool
}

// Node is what an EvalFunc sees of the node being evaluated.
type Node interface {
	Data() Value
	Arity() int
	// Arg evaluates the i-th child. Children are evaluated lazily.
	Arg(i int) (Value, error)
	Variable(name string) (Value, bool)
}

type EvalFunc func(n Node) (Value, error)

// Shape is the read-only view of a typed tree that legality checks inspect.
type Shape interface {
	TemplateOf(id tree.NodeID) *Template
	DataOf(id tree.NodeID) Value
	Children(id tree.NodeID) []tree.NodeID
	VariableType(name string) (ValueType, bool)
}

// LegalFunc reports whether node id of s can return want.
type LegalFunc func(s Shape, id tree.NodeID, want ValueType) bool

// Template describes a node kind: its name, arity and type rules. Templates
// are shared by every node built from them and must not change once placed
// in a Catalog.
type Template struct {
	Name       string
	Kind       Kind
	Data       DataKind
	Params     []Param
	Returns    TypeSet
	Precedence int  // lower binds tighter, used for infix rendering and parsing
	RightAssoc bool // infix operator groups right to left, as ^ does
	Eval       EvalFunc
	// Legal replaces the default structural check when set.
	Legal LegalFunc
}

func (t *Template) Arity() int { return len(t.Params) }

func (t *Template) IsTerminal() bool { return len(t.Params) == 0 }

// Key identifies a template inside a catalog. Names can repeat across
// arities, like unary and binary minus.
func (t *Template) Key() string { return templateKey(t.Name, t.Arity()) }

func templateKey(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// ReturnsType reports whether node id, built from t, can legally produce a
// value of type want. The whole subtree is checked.
func (t *Template) ReturnsType(s Shape, id tree.NodeID, want ValueType) bool {
	if t.Legal != nil {
		return t.Legal(s, id, want)
	}
	return StructurallyLegal(s, id, want)
}

// Signature renders the template as name({f,i}{f,i}):{f,i}.
func (t *Template) Signature() string {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('(')
	for _, p := range t.Params {
		if p.PassThrough {
			b.WriteByte(':')
		}
		b.WriteString(p.Types.String())
	}
	b.WriteString("):")
	b.WriteString(t.Returns.String())
	return b.String()
}

func (t *Template) String() string {
	return fmt.Sprintf("[Template:%s,kind=%s,arity=%d]", t.Signature(), t.Kind, t.Arity())
}

// StructurallyLegal is the default legality rule: want is among the
// template's return types, the child count equals the arity, and every child
// is legal for some type its slot accepts.
func StructurallyLegal(s Shape, id tree.NodeID, want ValueType) bool {
	t := s.TemplateOf(id)
	if t == nil || !Produces(t.Returns, want) {
		return false
	}
	children := s.Children(id)
	if len(children) != t.Arity() {
		return false
	}
	for i, c := range children {
		if !childLegal(s, c, t.Params[i], want) {
			return false
		}
	}
	return true
}

// Produces reports whether a node returning one of ret can stand where want
// is expected.
func Produces(ret TypeSet, want ValueType) bool {
	return ret.Has(want) || (want == Float && ret.Has(Int))
}

func childLegal(s Shape, child tree.NodeID, p Param, want ValueType) bool {
	ct := s.TemplateOf(child)
	if ct == nil {
		return false
	}
	candidates := p.Types
	if p.PassThrough {
		candidates = candidates.Intersect(Types(want))
		if want == Float && p.Types.Has(Int) {
			candidates |= Types(Int)
		}
	}
	for _, c := range candidates.List() {
		if ct.ReturnsType(s, child, c) {
			return true
		}
	}
	return false
}

// constLegal accepts a constant whose payload type fits want.
func constLegal(s Shape, id tree.NodeID, want ValueType) bool {
	if len(s.Children(id)) != 0 {
		return false
	}
	return Types(want).Accepts(s.DataOf(id).Type())
}

// varLegal accepts a variable whose declared type fits want.
func varLegal(s Shape, id tree.NodeID, want ValueType) bool {
	if len(s.Children(id)) != 0 {
		return false
	}
	d := s.DataOf(id)
	if d.Type() != String {
		return false
	}
	vt, ok := s.VariableType(d.Str())
	return ok && Types(want).Accepts(vt)
}
