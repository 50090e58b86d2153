package pool

import (
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/expr"
)

func init() {
	Register("conservative", func() Pool { return NewConservative() })
}

// ConservativePool provides basic building blocks: variables, small
// constants, negation and protected arithmetic.
type ConservativePool struct {
	catalog *expr.Catalog
}

func NewConservative() *ConservativePool {
	return &ConservativePool{catalog: mustSubset("+", "-", "*", "%")}
}

func (p *ConservativePool) Name() string { return "conservative" }

func (p *ConservativePool) Catalog() *expr.Catalog { return p.catalog }

func (p *ConservativePool) RandomConst(rng *rand.Rand, t expr.ValueType) expr.Value {
	return smallConst(rng, t)
}
