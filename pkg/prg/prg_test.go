package prg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/typed_gp/pkg/expr"
)

func newContext(t *testing.T, result expr.ValueType) *Context {
	t.Helper()
	ctx := NewContext(expr.Standard(), result)
	require.NoError(t, ctx.DefineVariable("x", expr.Float))
	require.NoError(t, ctx.DefineVariable("n", expr.Int))
	return ctx
}

func mustParse(t *testing.T, ctx *Context, text string) *Program {
	t.Helper()
	p, err := Parse(ctx, text)
	require.NoError(t, err, text)
	return p
}

func TestSingleLeafProgram(t *testing.T) {
	ctx := newContext(t, expr.Float)
	p := New(ctx)
	assert.False(t, Checker{}.IsValid(p), "empty program")

	leaf, err := p.Const(expr.FloatValue(2.5))
	require.NoError(t, err)
	require.NoError(t, p.SetRoot(leaf))
	assert.True(t, Checker{}.IsValid(p))
	assert.Equal(t, 1, p.Size())

	p = New(ctx)
	leaf, err = p.Const(expr.BoolValue(true))
	require.NoError(t, err)
	require.NoError(t, p.SetRoot(leaf))
	assert.False(t, Checker{}.IsValid(p), "bool leaf cannot be a float program")
}

func TestCheckerTypeRules(t *testing.T) {
	floatCtx := newContext(t, expr.Float)
	intCtx := newContext(t, expr.Int)
	boolCtx := newContext(t, expr.Bool)

	cases := []struct {
		ctx   *Context
		text  string
		valid bool
	}{
		{floatCtx, "(+ x 2)", true},
		{floatCtx, "(+ x true)", false},
		{floatCtx, "(* (sin x) (- n))", true},
		{floatCtx, "(& true (> x 1))", false},
		{boolCtx, "(& true (> x 1))", true},
		{boolCtx, "(! (= x \"a\"))", true},
		{intCtx, "(+ n 2)", true},
		{intCtx, "(+ n x)", false},
		{intCtx, "(+ n 2.5)", false},
		{intCtx, "(sqrt n)", false},
		{intCtx, "(ifelse (> x 0) n 3)", true},
		{intCtx, "(ifelse (> x 0) n 3.0)", false},
	}
	for _, tc := range cases {
		p := mustParse(t, tc.ctx, tc.text)
		assert.Equal(t, tc.valid, Checker{}.IsValid(p), "%s as %s", tc.text, tc.ctx.Result())
	}
}

func TestCheckerRejectsArityMismatch(t *testing.T) {
	ctx := newContext(t, expr.Float)
	p := New(ctx)
	x, err := p.Var("x")
	require.NoError(t, err)
	plus, ok := ctx.Catalog().Index("+", 2)
	require.True(t, ok)
	root, err := p.Node(plus, expr.Value{}, x)
	require.NoError(t, err)
	require.NoError(t, p.SetRoot(root))

	assert.False(t, Checker{}.IsValid(p))
	_, err = p.Evaluate()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCheckerRejectsUnknownTemplate(t *testing.T) {
	p := New(newContext(t, expr.Float))
	id := p.Tree().NewNode(Op{Template: 999})
	require.NoError(t, p.SetRoot(id))

	assert.NotPanics(t, func() {
		assert.False(t, Checker{}.IsValid(p))
	})
}

func TestCheckerLimits(t *testing.T) {
	p := mustParse(t, newContext(t, expr.Float), "(+ x (* x 2))")
	assert.True(t, Checker{MaxSize: 5, MaxDepth: 3}.IsValid(p))
	assert.False(t, Checker{MaxSize: 4}.IsValid(p))
	assert.False(t, Checker{MaxDepth: 2}.IsValid(p))
}

func TestEvaluate(t *testing.T) {
	p := mustParse(t, newContext(t, expr.Float), "(+ x (* n 2))")

	_, err := p.Evaluate()
	assert.ErrorIs(t, err, expr.ErrUnknownVariable)

	require.NoError(t, p.SetVariable("x", expr.FloatValue(1.5)))
	require.NoError(t, p.SetVariable("n", expr.IntValue(3)))
	v, err := p.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 7.5, v.Float())

	assert.ErrorIs(t, p.SetVariable("y", expr.FloatValue(1)), ErrUnknownVar)

	out, err := p.Compute([]float64{0.5, 4})
	require.NoError(t, err)
	assert.Equal(t, 8.5, out)

	_, err = p.Compute([]float64{1})
	assert.ErrorIs(t, err, ErrInputCount)
}

func TestComputeSurfacesEvalErrors(t *testing.T) {
	p := mustParse(t, newContext(t, expr.Float), "(/ x n)")
	_, err := p.Compute([]float64{1, 0})
	assert.ErrorIs(t, err, expr.ErrDivisionByZero)

	b := mustParse(t, newContext(t, expr.Bool), "(> x n)")
	out, err := b.Compute([]float64{3, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out)
}

func TestFindNode(t *testing.T) {
	p := mustParse(t, newContext(t, expr.Float), "(+ x 2)")
	root, ok := p.FindNode(0)
	require.True(t, ok)
	assert.Equal(t, p.Root(), root)

	x, ok := p.FindNode(1)
	require.True(t, ok)
	assert.Equal(t, expr.VarName, p.Template(x).Name)

	two, ok := p.FindNode(2)
	require.True(t, ok)
	assert.Equal(t, int64(2), p.Tree().Value(two).Data.Int())

	_, ok = p.FindNode(3)
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	ctx := newContext(t, expr.Float)
	p := mustParse(t, ctx, "(+ x 2)")
	require.NoError(t, p.SetVariable("x", expr.FloatValue(1)))

	c := p.Clone()
	assert.NotEqual(t, p.ID, c.ID)
	assert.Equal(t, p.String(), c.String())

	leaf, err := c.Const(expr.IntValue(7))
	require.NoError(t, err)
	target, ok := c.FindNode(2)
	require.True(t, ok)
	require.NoError(t, c.ReplaceNode(target, leaf))

	assert.Equal(t, "(+ x 7)", c.String())
	assert.Equal(t, "(+ x 2)", p.String())

	v, err := c.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 8.0, v.Float(), "variables are copied")
}

func TestRenderParseRoundTrip(t *testing.T) {
	ctx := newContext(t, expr.Float)
	for _, text := range []string{
		"x",
		"2.0",
		"(+ x 2)",
		"(* 2.0 (- x))",
		"(ifelse (> x 0.5) (- n) (% n 3))",
		`(= "a b" "c\"d")`,
		"(max (^ x 2) 1e+300)",
	} {
		p := mustParse(t, ctx, text)
		assert.Equal(t, text, p.String())
	}
}

func TestInfixAndLaTeX(t *testing.T) {
	ctx := newContext(t, expr.Float)
	assert.Equal(t, "(x + 2)", mustParse(t, ctx, "(+ x 2)").Infix())
	assert.Equal(t, "(-n)", mustParse(t, ctx, "(- n)").Infix())
	assert.Equal(t, "(- 2)", mustParse(t, ctx, "(- 2)").Infix())
	assert.Equal(t, "max(x, 1)", mustParse(t, ctx, "(max x 1)").Infix())
	assert.Equal(t, `\frac{x}{2}`, mustParse(t, ctx, "(/ x 2)").LaTeX())
}

func TestInfixRoundTrip(t *testing.T) {
	ctx := newContext(t, expr.Float)
	for _, text := range []string{
		"(+ x 2)",
		"(- (* x x) (/ n 3))",
		"(- 2.5)",
		"(- -2.5)",
		"(+ -2 x)",
		"(- x -1e-08)",
		"(^ (^ x 2) 3)",
		"(^ x (^ 2 3))",
		"(- (^ x 2))",
		"(^ (- x) 2)",
		"(ifelse (& (> x 1) (! (= n 2))) (max x 1.0) (sqrt x))",
		"(ifelse (| (<= x 1) (<> \"a b\" \"c\")) x +Inf)",
		"(% x (abs (- n)))",
	} {
		p := mustParse(t, ctx, text)
		back, err := ParseInfix(ctx, p.Infix())
		require.NoError(t, err, p.Infix())
		assert.Equal(t, text, back.String(), p.Infix())
	}
}

func TestParseInfixPrecedence(t *testing.T) {
	ctx := newContext(t, expr.Float)
	cases := map[string]string{
		"x + 2 * n":                   "(+ x (* 2 n))",
		"(x + 2) * n":                 "(* (+ x 2) n)",
		"x - n - 1":                   "(- (- x n) 1)",
		"2 ^ 3 ^ 2":                   "(^ 2 (^ 3 2))",
		"-x ^ 2":                      "(- (^ x 2))",
		"-x * 2":                      "(* (- x) 2)",
		"x*-1":                        "(* x -1)",
		"x -1":                        "(- x 1)",
		"+x":                          "x",
		"x > 1 & x < 3 | n = 0":       "(| (& (> x 1) (< x 3)) (= n 0))",
		"max(x, 1) + sin(x)":          "(+ (max x 1) (sin x))",
		"ifelse(x >= 0, x, -x)":       "(ifelse (>= x 0) x (- x))",
		`ifelse("a" <> "b", 1.5, .5)`: `(ifelse (<> "a" "b") 1.5 0.5)`,
	}
	for in, want := range cases {
		p, err := ParseInfix(ctx, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, p.String(), in)
	}
}

func TestParseInfixErrors(t *testing.T) {
	ctx := newContext(t, expr.Float)
	for _, text := range []string{"", "x +", "(x", "x)", "1 2", "x $ 2", `"abc`, "max(x, 1", "max(x; 1)", "x ! 2", "y"} {
		_, err := ParseInfix(ctx, text)
		assert.ErrorIs(t, err, ErrParse, text)
	}

	_, err := ParseInfix(ctx, "max(x)")
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, expr.ErrUnknownTemplate, "wrong arity")

	_, err = ParseInfix(ctx, "frob(x)")
	assert.ErrorIs(t, err, expr.ErrUnknownTemplate)

	narrow, err := expr.Standard().Subset("+")
	require.NoError(t, err)
	_, err = ParseInfix(NewContext(narrow, expr.Float), "-1 * 2")
	assert.ErrorIs(t, err, ErrParse, "operator missing from catalog")
}

func TestParseErrors(t *testing.T) {
	ctx := newContext(t, expr.Float)
	for _, text := range []string{"", "(+ x", "(+ x y)", "x)", "()", `(+ "x 1)`} {
		_, err := Parse(ctx, text)
		assert.ErrorIs(t, err, ErrParse, text)
	}
	_, err := Parse(ctx, "(frob x)")
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, expr.ErrUnknownTemplate)
}

func TestSimplify(t *testing.T) {
	ctx := newContext(t, expr.Float)
	cases := map[string]string{
		"(+ x (* 2 3))":        "(+ x 6)",
		"(* (+ x 0) 1)":        "x",
		"(- (- x))":            "x",
		"(+ (* 2 3) 4)":        "10",
		"(/ x 1)":              "x",
		"(+ x (/ 1 0))":        "(+ x (/ 1 0))",
		"(ifelse (> 2 1) x n)": "(ifelse true x n)",
	}
	for in, want := range cases {
		p := mustParse(t, ctx, in)
		require.True(t, Checker{}.IsValid(p), in)
		require.NoError(t, p.Simplify())
		assert.Equal(t, want, p.String(), in)
		assert.True(t, Checker{}.IsValid(p), in)
	}
}

func TestGraftAcrossCatalogs(t *testing.T) {
	src := mustParse(t, newContext(t, expr.Float), "(+ x (sin x))")

	small, err := expr.Standard().Subset("+", "*")
	require.NoError(t, err)
	dstCtx := NewContext(small, expr.Float)
	require.NoError(t, dstCtx.DefineVariable("x", expr.Float))
	dst := New(dstCtx)

	plus, ok := src.FindNode(0)
	require.True(t, ok)
	_, err = dst.Graft(src, plus)
	assert.ErrorIs(t, err, ErrForeignTemplate)

	x, ok := src.FindNode(1)
	require.True(t, ok)
	id, err := dst.Graft(src, x)
	require.NoError(t, err)
	require.NoError(t, dst.SetRoot(id))
	assert.Equal(t, "x", dst.String())
	assert.True(t, Checker{}.IsValid(dst))
}

func TestContextVariables(t *testing.T) {
	ctx := newContext(t, expr.Float)
	assert.ErrorIs(t, ctx.DefineVariable("x", expr.Int), ErrVariableDefined)
	for _, bad := range []string{"", "2x", "true", "nan", "a b"} {
		assert.ErrorIs(t, ctx.DefineVariable(bad, expr.Float), ErrBadVariableName, bad)
	}

	names := func(vs []Variable) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = v.Name
		}
		return out
	}
	assert.Equal(t, []string{"n"}, names(ctx.VariablesOfType(expr.Types(expr.Int))))
	assert.Equal(t, []string{"x", "n"}, names(ctx.VariablesOfType(expr.Types(expr.Float))))
	assert.Empty(t, ctx.VariablesOfType(expr.Types(expr.Bool)))
}

func TestWeightedComplexity(t *testing.T) {
	ctx := newContext(t, expr.Float)
	assert.Equal(t, 3.0, mustParse(t, ctx, "(+ x 2)").WeightedComplexity())
	assert.InDelta(t, 6.0, mustParse(t, ctx, "(sin 100.0)").WeightedComplexity(), 1e-12)
	assert.Equal(t, 0.0, New(ctx).WeightedComplexity())
}

func TestNodeType(t *testing.T) {
	p := mustParse(t, newContext(t, expr.Float), "(+ x (* n 2))")
	want := map[int]expr.ValueType{0: expr.Float, 1: expr.Float, 2: expr.Int, 3: expr.Int, 4: expr.Int}
	for i, vt := range want {
		id, ok := p.FindNode(i)
		require.True(t, ok)
		got, ok := p.NodeType(id)
		require.True(t, ok)
		assert.Equal(t, vt, got, "node %d", i)
	}

	b := mustParse(t, newContext(t, expr.Bool), "(> x 1)")
	got, ok := b.NodeType(b.Root())
	require.True(t, ok)
	assert.Equal(t, expr.Bool, got)
}
