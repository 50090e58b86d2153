package pool

import (
	"math"
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/expr"
)

func init() {
	Register("kitchensink", func() Pool { return NewKitchenSink() })
}

// KitchenSinkPool offers the whole standard catalog: trig, exp and log,
// unprotected division, comparisons, boolean logic and ifelse.
type KitchenSinkPool struct {
	catalog *expr.Catalog
}

func NewKitchenSink() *KitchenSinkPool {
	return &KitchenSinkPool{catalog: expr.Standard()}
}

func (p *KitchenSinkPool) Name() string { return "kitchensink" }

func (p *KitchenSinkPool) Catalog() *expr.Catalog { return p.catalog }

var kitchenSinkFloats = []float64{math.Pi, math.E, 0.5, 0.1}

func (p *KitchenSinkPool) RandomConst(rng *rand.Rand, t expr.ValueType) expr.Value {
	if t == expr.Float && rng.Float64() < 0.2 {
		return expr.FloatValue(kitchenSinkFloats[rng.Intn(len(kitchenSinkFloats))])
	}
	return smallConst(rng, t)
}
