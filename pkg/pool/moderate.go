package pool

import (
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/expr"
)

func init() {
	Register("moderate", func() Pool { return NewModerate() })
}

// ModeratePool extends conservative with powers of 2/3 as constants,
// sqrt and abs as unary functions, and power, min and max as binary ones.
type ModeratePool struct {
	catalog *expr.Catalog
}

func NewModerate() *ModeratePool {
	return &ModeratePool{catalog: mustSubset("+", "-", "*", "%", "^", "sqrt", "abs", "min", "max")}
}

func (p *ModeratePool) Name() string { return "moderate" }

func (p *ModeratePool) Catalog() *expr.Catalog { return p.catalog }

func (p *ModeratePool) RandomConst(rng *rand.Rand, t expr.ValueType) expr.Value {
	if t != expr.Int && t != expr.Float {
		return smallConst(rng, t)
	}
	r := rng.Float64()
	switch {
	case r < 0.75:
		return smallConst(rng, t)
	case r < 0.875:
		// powers of 2: 2, 4, 8, 16
		exp := rng.Intn(4) + 1
		return expr.IntValue(int64(1) << uint(exp))
	default:
		// powers of 3: 3, 9, 27
		vals := []int64{3, 9, 27}
		return expr.IntValue(vals[rng.Intn(len(vals))])
	}
}
