package prg

import (
	"fmt"
	"strings"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// String renders the program as a prefix S-expression, e.g. (+ x 2). Parse
// reads this form back.
func (p *Program) String() string {
	if p.Root() == tree.None {
		return "()"
	}
	var b strings.Builder
	p.writeSexpr(&b, p.Root())
	return b.String()
}

func (p *Program) writeSexpr(b *strings.Builder, id tree.NodeID) {
	t := p.Template(id)
	op := p.tree.Value(id)
	switch {
	case t.Data == expr.VarData:
		b.WriteString(op.Data.Str())
		return
	case t.Data == expr.ConstData:
		b.WriteString(op.Data.String())
		return
	case p.tree.ChildCount(id) == 0:
		b.WriteString("(" + t.Name + ")")
		return
	}
	b.WriteByte('(')
	b.WriteString(t.Name)
	for _, c := range p.tree.ChildNodes(id) {
		b.WriteByte(' ')
		p.writeSexpr(b, c)
	}
	b.WriteByte(')')
}

// Infix renders the program in conventional notation, e.g. ((x + 2) * y).
// ParseInfix reads it back.
func (p *Program) Infix() string {
	if p.Root() == tree.None {
		return ""
	}
	return p.infix(p.Root())
}

func (p *Program) infix(id tree.NodeID) string {
	t := p.Template(id)
	op := p.tree.Value(id)
	children := p.tree.ChildNodes(id)
	args := make([]string, len(children))
	for i, c := range children {
		args[i] = p.infix(c)
	}

	switch {
	case t.Data == expr.VarData:
		return op.Data.Str()
	case t.Data == expr.ConstData:
		return op.Data.String()
	case t.Kind == expr.Unary && len(args) == 1:
		if p.Template(children[0]).Data == expr.ConstData {
			// "(- 2)" negates a constant; "(-2)" is the constant -2.
			return fmt.Sprintf("(%s %s)", t.Name, args[0])
		}
		return fmt.Sprintf("(%s%s)", t.Name, args[0])
	case t.Kind == expr.Operator && len(args) == 2:
		return fmt.Sprintf("(%s %s %s)", args[0], t.Name, args[1])
	default:
		return fmt.Sprintf("%s(%s)", t.Name, strings.Join(args, ", "))
	}
}

// LaTeX renders the program for reports.
func (p *Program) LaTeX() string {
	if p.Root() == tree.None {
		return ""
	}
	return p.latex(p.Root())
}

func (p *Program) latex(id tree.NodeID) string {
	t := p.Template(id)
	op := p.tree.Value(id)
	children := p.tree.ChildNodes(id)
	args := make([]string, len(children))
	for i, c := range children {
		args[i] = p.latex(c)
	}

	switch {
	case t.Data == expr.VarData:
		return op.Data.Str()
	case t.Data == expr.ConstData:
		return op.Data.Str()
	}
	if len(args) == 1 {
		switch t.Name {
		case "-":
			return fmt.Sprintf("-{%s}", args[0])
		case "!":
			return fmt.Sprintf("\\neg{%s}", args[0])
		case "abs":
			return fmt.Sprintf("|%s|", args[0])
		case "sqrt":
			return fmt.Sprintf("\\sqrt{%s}", args[0])
		case "sin", "cos", "tan", "exp", "log":
			return fmt.Sprintf("\\%s{(%s)}", t.Name, args[0])
		}
	}
	if len(args) == 2 {
		switch t.Name {
		case "+", "-", "<", ">", "=":
			return fmt.Sprintf("{%s} %s {%s}", args[0], t.Name, args[1])
		case "*":
			return fmt.Sprintf("{%s} \\cdot {%s}", args[0], args[1])
		case "/", "%":
			return fmt.Sprintf("\\frac{%s}{%s}", args[0], args[1])
		case "^":
			return fmt.Sprintf("{%s}^{%s}", args[0], args[1])
		case "&":
			return fmt.Sprintf("{%s} \\land {%s}", args[0], args[1])
		case "|":
			return fmt.Sprintf("{%s} \\lor {%s}", args[0], args[1])
		case "<=":
			return fmt.Sprintf("{%s} \\le {%s}", args[0], args[1])
		case ">=":
			return fmt.Sprintf("{%s} \\ge {%s}", args[0], args[1])
		case "<>":
			return fmt.Sprintf("{%s} \\ne {%s}", args[0], args[1])
		}
	}
	return fmt.Sprintf("\\operatorname{%s}(%s)", t.Name, strings.Join(args, ", "))
}
