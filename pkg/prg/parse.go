package prg

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

var ErrParse = errors.New("parse program")

// Parse reads the S-expression form written by Program.String. Atoms are
// literals or defined variable names; lists start with a template name and
// pick the template whose arity equals the argument count.
func Parse(ctx *Context, text string) (*Program, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := New(ctx)
	ps := &parser{p: p, toks: toks}
	root, err := ps.node()
	if err != nil {
		return nil, err
	}
	if ps.pos != len(ps.toks) {
		return nil, fmt.Errorf("%w: trailing input at %q", ErrParse, ps.toks[ps.pos])
	}
	if err := p.SetRoot(root); err != nil {
		return nil, err
	}
	return p, nil
}

type parser struct {
	p    *Program
	toks []string
	pos  int
}

func (ps *parser) next() (string, bool) {
	if ps.pos >= len(ps.toks) {
		return "", false
	}
	tok := ps.toks[ps.pos]
	ps.pos++
	return tok, true
}

func (ps *parser) node() (tree.NodeID, error) {
	tok, ok := ps.next()
	if !ok {
		return tree.None, fmt.Errorf("%w: unexpected end of input", ErrParse)
	}
	switch tok {
	case ")":
		return tree.None, fmt.Errorf("%w: unexpected )", ErrParse)
	case "(":
		return ps.list()
	}
	return ps.atom(tok)
}

func (ps *parser) list() (tree.NodeID, error) {
	name, ok := ps.next()
	if !ok || name == "(" || name == ")" {
		return tree.None, fmt.Errorf("%w: list must start with a template name", ErrParse)
	}
	var args []tree.NodeID
	for {
		if ps.pos >= len(ps.toks) {
			return tree.None, fmt.Errorf("%w: missing ) after %s", ErrParse, name)
		}
		if ps.toks[ps.pos] == ")" {
			ps.pos++
			break
		}
		arg, err := ps.node()
		if err != nil {
			return tree.None, err
		}
		args = append(args, arg)
	}
	id, err := ps.p.Call(name, args...)
	if err != nil {
		return tree.None, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return id, nil
}

func (ps *parser) atom(tok string) (tree.NodeID, error) { return ps.p.atom(tok) }

// atom builds a leaf from a literal or a defined variable name.
func (p *Program) atom(tok string) (tree.NodeID, error) {
	if v, err := expr.ParseLiteral(tok); err == nil {
		return p.Const(v)
	}
	if _, ok := p.ctx.VariableType(tok); ok {
		return p.Var(tok)
	}
	return tree.None, fmt.Errorf("%w: unknown symbol %q", ErrParse, tok)
}

func tokenize(text string) ([]string, error) {
	var toks []string
	rs := []rune(text)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')':
			toks = append(toks, string(r))
			i++
		case r == '"':
			j := i + 1
			for ; j < len(rs) && rs[j] != '"'; j++ {
				if rs[j] == '\\' {
					j++
				}
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated string", ErrParse)
			}
			toks = append(toks, string(rs[i:j+1]))
			i = j + 1
		default:
			var b strings.Builder
			for ; i < len(rs) && !unicode.IsSpace(rs[i]) && rs[i] != '(' && rs[i] != ')' && rs[i] != '"'; i++ {
				b.WriteRune(rs[i])
			}
			toks = append(toks, b.String())
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}
	return toks, nil
}
