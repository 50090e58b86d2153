package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/prg"
)

func testContext(t *testing.T) *prg.Context {
	t.Helper()
	ctx := prg.NewContext(expr.Standard(), expr.Float)
	require.NoError(t, ctx.DefineVariable("x", expr.Float))
	return ctx
}

func TestIdentityRoundTrip(t *testing.T) {
	p, err := prg.Parse(testContext(t), "(* x 3)")
	require.NoError(t, err)

	var c Codec[*prg.Program, *prg.Program] = Identity[*prg.Program]{}
	decoded, err := c.Decode(p)
	require.NoError(t, err)
	assert.Same(t, p, decoded)

	encoded, err := c.Encode(decoded)
	require.NoError(t, err)
	assert.Same(t, p, encoded)
}

func TestIdentityIsGeneric(t *testing.T) {
	weights := []float64{0.5, -1}
	out, err := Identity[[]float64]{}.Encode(weights)
	require.NoError(t, err)
	back, err := Identity[[]float64]{}.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, weights, back)
}

func TestTextRoundTrip(t *testing.T) {
	ctx := testContext(t)
	c := Text{Context: ctx}

	p, err := prg.Parse(ctx, "(ifelse (> x 0.25) (sqrt x) -3)")
	require.NoError(t, err)

	text, err := c.Decode(p)
	require.NoError(t, err)
	back, err := c.Encode(text)
	require.NoError(t, err)

	assert.Equal(t, p.String(), back.String())
	assert.NotEqual(t, p.ID, back.ID)
	assert.Equal(t, prg.Checker{}.IsValid(p), prg.Checker{}.IsValid(back))

	_, err = c.Decode(nil)
	assert.ErrorIs(t, err, ErrNilGenome)
	_, err = c.Encode("(+ x")
	assert.ErrorIs(t, err, prg.ErrParse)
}
