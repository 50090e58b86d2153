package prg

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// ParseInfix reads conventional notation such as x + 2 * sin(n), including
// the fully parenthesized form Infix writes. Binding comes from the catalog:
// a template's Precedence orders operators (lower binds tighter) and
// RightAssoc groups them right to left. Names followed by "(" call the
// template of that name whose arity matches the argument count. A sign
// directly in front of a number is part of the literal, so -2 is a constant
// and "- 2" negates one.
func ParseInfix(ctx *Context, text string) (*Program, error) {
	toks, err := lexInfix(text)
	if err != nil {
		return nil, err
	}
	p := New(ctx)
	ip := &infixParser{p: p, toks: toks}
	root, err := ip.expr(math.MaxInt)
	if err != nil {
		return nil, err
	}
	if tok, ok := ip.peek(); ok {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrParse, tok.text, tok.pos)
	}
	if err := p.SetRoot(root); err != nil {
		return nil, err
	}
	return p, nil
}

type infixKind int

const (
	infixAtom infixKind = iota
	infixOp
	infixOpen
	infixClose
	infixComma
)

type infixToken struct {
	kind infixKind
	text string
	pos  int
}

type infixParser struct {
	p    *Program
	toks []infixToken
	pos  int
}

func (ip *infixParser) peek() (infixToken, bool) {
	if ip.pos >= len(ip.toks) {
		return infixToken{}, false
	}
	return ip.toks[ip.pos], true
}

func (ip *infixParser) next() (infixToken, bool) {
	tok, ok := ip.peek()
	if ok {
		ip.pos++
	}
	return tok, ok
}

// expr parses operands joined by binary operators whose precedence is at
// most limit.
func (ip *infixParser) expr(limit int) (tree.NodeID, error) {
	left, err := ip.unary()
	if err != nil {
		return tree.None, err
	}
	for {
		tok, ok := ip.peek()
		if !ok || tok.kind != infixOp {
			return left, nil
		}
		idx, t, err := ip.operator(tok, 2)
		if err != nil {
			return tree.None, err
		}
		if t.Precedence > limit {
			return left, nil
		}
		ip.pos++
		next := t.Precedence - 1
		if t.RightAssoc {
			next = t.Precedence
		}
		right, err := ip.expr(next)
		if err != nil {
			return tree.None, err
		}
		if left, err = ip.p.Node(idx, expr.Value{}, left, right); err != nil {
			return tree.None, err
		}
	}
}

func (ip *infixParser) unary() (tree.NodeID, error) {
	tok, ok := ip.peek()
	if !ok {
		return tree.None, fmt.Errorf("%w: unexpected end of input", ErrParse)
	}
	if tok.kind != infixOp {
		return ip.primary()
	}
	ip.pos++
	if tok.text == "+" {
		return ip.unary()
	}
	idx, t, err := ip.operator(tok, 1)
	if err != nil {
		return tree.None, err
	}
	operand, err := ip.expr(t.Precedence)
	if err != nil {
		return tree.None, err
	}
	return ip.p.Node(idx, expr.Value{}, operand)
}

func (ip *infixParser) primary() (tree.NodeID, error) {
	tok, _ := ip.next()
	switch tok.kind {
	case infixOpen:
		id, err := ip.expr(math.MaxInt)
		if err != nil {
			return tree.None, err
		}
		if end, ok := ip.next(); !ok || end.kind != infixClose {
			return tree.None, fmt.Errorf("%w: missing ) for ( at %d", ErrParse, tok.pos)
		}
		return id, nil
	case infixAtom:
		if open, ok := ip.peek(); ok && open.kind == infixOpen && isIdentifier(tok.text) {
			ip.pos++
			return ip.call(tok)
		}
		return ip.p.atom(tok.text)
	}
	return tree.None, fmt.Errorf("%w: unexpected %q at %d", ErrParse, tok.text, tok.pos)
}

func (ip *infixParser) call(name infixToken) (tree.NodeID, error) {
	var args []tree.NodeID
	if tok, ok := ip.peek(); ok && tok.kind == infixClose {
		ip.pos++
	} else {
		for {
			arg, err := ip.expr(math.MaxInt)
			if err != nil {
				return tree.None, err
			}
			args = append(args, arg)
			tok, ok := ip.next()
			if !ok {
				return tree.None, fmt.Errorf("%w: missing ) after %s(", ErrParse, name.text)
			}
			if tok.kind == infixClose {
				break
			}
			if tok.kind != infixComma {
				return tree.None, fmt.Errorf("%w: unexpected %q at %d in %s(", ErrParse, tok.text, tok.pos, name.text)
			}
		}
	}
	id, err := ip.p.Call(name.text, args...)
	if err != nil {
		return tree.None, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return id, nil
}

// operator resolves an operator token to the unary or binary template of
// that name.
func (ip *infixParser) operator(tok infixToken, arity int) (int, *expr.Template, error) {
	want := expr.Operator
	if arity == 1 {
		want = expr.Unary
	}
	idx, ok := ip.p.ctx.catalog.Index(tok.text, arity)
	if !ok || ip.p.ctx.catalog.At(idx).Kind != want {
		return -1, nil, fmt.Errorf("%w: no %s operator %q at %d", ErrParse, want, tok.text, tok.pos)
	}
	return idx, ip.p.ctx.catalog.At(idx), nil
}

const infixOpChars = "<>=!&|^*/%+-"

var infixPairs = map[string]bool{"<>": true, "<=": true, ">=": true}

func lexInfix(text string) ([]infixToken, error) {
	var toks []infixToken
	rs := []rune(text)
	// operand is true after a token that ends an operand; a sign seen
	// elsewhere may start a signed literal.
	operand := false
	emit := func(kind infixKind, from, to int) {
		toks = append(toks, infixToken{kind: kind, text: string(rs[from:to]), pos: from})
		operand = kind == infixAtom || kind == infixClose
	}
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			emit(infixOpen, i, i+1)
			i++
		case r == ')':
			emit(infixClose, i, i+1)
			i++
		case r == ',':
			emit(infixComma, i, i+1)
			i++
		case r == '"':
			j := i + 1
			for ; j < len(rs) && rs[j] != '"'; j++ {
				if rs[j] == '\\' {
					j++
				}
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrParse, i)
			}
			emit(infixAtom, i, j+1)
			i = j + 1
		case numberAt(rs, i), !operand && (r == '-' || r == '+') && (numberAt(rs, i+1) || infinityAt(rs, i+1)):
			j := scanNumber(rs, i)
			emit(infixAtom, i, j)
			i = j
		case r == '_' || unicode.IsLetter(r):
			j := i + 1
			for j < len(rs) && identRune(rs[j]) {
				j++
			}
			emit(infixAtom, i, j)
			i = j
		case strings.ContainsRune(infixOpChars, r):
			j := i + 1
			if j < len(rs) && infixPairs[string(rs[i:j+1])] {
				j++
			}
			emit(infixOp, i, j)
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrParse, r, i)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}
	return toks, nil
}

func identRune(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func numberAt(rs []rune, i int) bool {
	if i >= len(rs) {
		return false
	}
	if unicode.IsDigit(rs[i]) {
		return true
	}
	return rs[i] == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])
}

// infinityAt matches the Inf that Value.String writes for infinite floats.
func infinityAt(rs []rune, i int) bool {
	end := i + len("Inf")
	if end > len(rs) || string(rs[i:end]) != "Inf" {
		return false
	}
	return end == len(rs) || !identRune(rs[end])
}

// scanNumber returns the end of the optionally signed number at i.
func scanNumber(rs []rune, i int) int {
	if rs[i] == '-' || rs[i] == '+' {
		i++
		if infinityAt(rs, i) {
			return i + len("Inf")
		}
	}
	digits := func() {
		for i < len(rs) && unicode.IsDigit(rs[i]) {
			i++
		}
	}
	digits()
	if i < len(rs) && rs[i] == '.' {
		i++
		digits()
	}
	if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
		j := i + 1
		if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
			j++
		}
		if j < len(rs) && unicode.IsDigit(rs[j]) {
			i = j
			digits()
		}
	}
	return i
}
