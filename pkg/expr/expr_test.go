package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode feeds fixed argument values to an EvalFunc.
type fakeNode struct {
	data  Value
	args  []Value
	vars  map[string]Value
	calls int
}

func (f *fakeNode) Data() Value { return f.data }
func (f *fakeNode) Arity() int  { return len(f.args) }
func (f *fakeNode) Arg(i int) (Value, error) {
	f.calls++
	return f.args[i], nil
}
func (f *fakeNode) Variable(name string) (Value, bool) {
	v, ok := f.vars[name]
	return v, ok
}

func eval(t *testing.T, name string, args ...Value) (Value, error) {
	t.Helper()
	tmpl, err := Standard().Lookup(name, len(args))
	require.NoError(t, err)
	return tmpl.Eval(&fakeNode{args: args})
}

func mustEval(t *testing.T, name string, args ...Value) Value {
	t.Helper()
	v, err := eval(t, name, args...)
	require.NoError(t, err)
	return v
}

func TestArithmeticPromotion(t *testing.T) {
	v := mustEval(t, "+", IntValue(2), IntValue(3))
	assert.Equal(t, Int, v.Type())
	assert.Equal(t, int64(5), v.Int())

	v = mustEval(t, "+", IntValue(2), FloatValue(0.5))
	assert.Equal(t, Float, v.Type())
	assert.Equal(t, 2.5, v.Float())

	assert.Equal(t, int64(-4), mustEval(t, "-", IntValue(4)).Int())
	assert.Equal(t, 6.0, mustEval(t, "*", FloatValue(2), IntValue(3)).Float())
	assert.Equal(t, int64(8), mustEval(t, "^", IntValue(2), IntValue(3)).Int())
	assert.Equal(t, 0.5, mustEval(t, "^", IntValue(2), IntValue(-1)).Float())
}

func TestDivision(t *testing.T) {
	assert.Equal(t, int64(3), mustEval(t, "/", IntValue(7), IntValue(2)).Int())
	assert.Equal(t, 3.5, mustEval(t, "/", FloatValue(7), IntValue(2)).Float())

	_, err := eval(t, "/", IntValue(1), IntValue(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "/", evalErr.Template)

	_, err = eval(t, "/", FloatValue(1), FloatValue(1e-9))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	assert.Equal(t, int64(1), mustEval(t, "%", IntValue(5), IntValue(0)).Int())
	assert.Equal(t, 1.0, mustEval(t, "%", FloatValue(5), FloatValue(0)).Float())
	assert.Equal(t, 2.5, mustEval(t, "%", FloatValue(5), FloatValue(2)).Float())
}

func TestFunctions(t *testing.T) {
	assert.Equal(t, int64(3), mustEval(t, "abs", IntValue(-3)).Int())
	assert.Equal(t, 2.0, mustEval(t, "sqrt", IntValue(4)).Float())
	assert.True(t, math.IsNaN(mustEval(t, "sqrt", FloatValue(-1)).Float()))
	assert.InDelta(t, 1.0, mustEval(t, "cos", FloatValue(0)).Float(), 1e-12)
	assert.Equal(t, int64(2), mustEval(t, "min", IntValue(2), IntValue(9)).Int())
	assert.Equal(t, 9.5, mustEval(t, "max", IntValue(2), FloatValue(9.5)).Float())
}

func TestBooleanAndComparison(t *testing.T) {
	assert.True(t, mustEval(t, ">", IntValue(3), FloatValue(2.5)).Bool())
	assert.False(t, mustEval(t, "<", IntValue(3), FloatValue(2.5)).Bool())
	assert.True(t, mustEval(t, "=", FloatValue(1), IntValue(1)).Bool())
	assert.True(t, mustEval(t, "<>", StringValue("a"), StringValue("b")).Bool())
	assert.False(t, mustEval(t, "!", BoolValue(true)).Bool())
	assert.True(t, mustEval(t, "|", BoolValue(false), BoolValue(true)).Bool())
}

func TestShortCircuit(t *testing.T) {
	and, err := Standard().Lookup("&", 2)
	require.NoError(t, err)
	n := &fakeNode{args: []Value{BoolValue(false), BoolValue(true)}}
	v, err := and.Eval(n)
	require.NoError(t, err)
	assert.False(t, v.Bool())
	assert.Equal(t, 1, n.calls, "right side is not evaluated")

	ifelse, err := Standard().Lookup("ifelse", 3)
	require.NoError(t, err)
	n = &fakeNode{args: []Value{BoolValue(true), IntValue(1), IntValue(2)}}
	v, err = ifelse.Eval(n)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int())
	assert.Equal(t, 2, n.calls)
}

func TestVarTemplate(t *testing.T) {
	tmpl, err := Standard().Lookup(VarName, 0)
	require.NoError(t, err)

	n := &fakeNode{data: StringValue("x"), vars: map[string]Value{"x": FloatValue(4)}}
	v, err := tmpl.Eval(n)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.Float())

	n.data = StringValue("y")
	_, err = tmpl.Eval(n)
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestValueLiteralRoundTrip(t *testing.T) {
	for _, v := range []Value{
		FloatValue(2), FloatValue(-0.125), FloatValue(1e300), FloatValue(math.Inf(-1)),
		FloatValue(math.NaN()), IntValue(-17), BoolValue(true), StringValue(`a "quoted" b`),
	} {
		got, err := ParseLiteral(v.String())
		require.NoError(t, err, v.String())
		assert.True(t, v.Equal(got), "%s != %s", v, got)
	}
	_, err := ParseLiteral("nope")
	assert.Error(t, err)
}

func TestTypeSet(t *testing.T) {
	s := Types(Float, Bool)
	assert.True(t, s.Has(Float))
	assert.False(t, s.Has(Int))
	assert.True(t, s.Accepts(Int), "ints widen to floats")
	assert.False(t, Types(Int).Accepts(Float))
	assert.Equal(t, []ValueType{Float, Bool}, s.List())
	assert.Equal(t, "{float,bool}", s.String())
	assert.True(t, Produces(Types(Int), Float))
	assert.False(t, Produces(Types(Float), Int))

	vt, err := ParseValueType("i")
	require.NoError(t, err)
	assert.Equal(t, Int, vt)
}

func TestCatalog(t *testing.T) {
	c := Standard()
	minus1, err := c.Lookup("-", 1)
	require.NoError(t, err)
	minus2, err := c.Lookup("-", 2)
	require.NoError(t, err)
	assert.NotSame(t, minus1, minus2)
	assert.Equal(t, "-(:{float,int}:{float,int}):{float,int}", minus2.Signature())

	_, err = c.Lookup("frobnicate", 2)
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, err = NewCatalog(minus1, minus1)
	assert.ErrorIs(t, err, ErrDuplicateTemplate)

	for _, i := range c.Find(Types(Bool), false, true) {
		assert.True(t, c.At(i).Returns.Has(Bool), c.At(i).Key())
		assert.False(t, c.At(i).IsTerminal())
	}
	terms := c.Find(Types(Float), true, false)
	assert.Len(t, terms, 2)

	sub, err := c.Subset("+", "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"#const/0", "#var/0", "*/2", "+/2"}, sub.Names())
	_, err = c.Subset("nope")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
