package pool

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/wildfunctions/typed_gp/pkg/expr"
)

// Pool provides the building blocks random programs are made of: a template
// catalog and a source of constants.
type Pool interface {
	Name() string
	Catalog() *expr.Catalog
	RandomConst(rng *rand.Rand, t expr.ValueType) expr.Value
}

var registry = map[string]func() Pool{}

// Register adds a pool constructor to the registry.
func Register(name string, constructor func() Pool) {
	registry[name] = constructor
}

// Get returns a pool by name.
func Get(name string) (Pool, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown pool: %s", name)
	}
	return ctor(), nil
}

// Names returns all registered pool names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func mustSubset(names ...string) *expr.Catalog {
	c, err := expr.Standard().Subset(names...)
	if err != nil {
		panic(err)
	}
	return c
}

var words = []string{"a", "b", "yes", "no", ""}

// smallConst is shared by the pools: ints 1-10, two-decimal floats in
// [-5, 5), fair coin bools and a few short strings.
func smallConst(rng *rand.Rand, t expr.ValueType) expr.Value {
	switch t {
	case expr.Int:
		return expr.IntValue(int64(rng.Intn(10) + 1))
	case expr.Bool:
		return expr.BoolValue(rng.Intn(2) == 1)
	case expr.String:
		return expr.StringValue(words[rng.Intn(len(words))])
	default:
		if rng.Float64() < 0.5 {
			return expr.IntValue(int64(rng.Intn(10) + 1))
		}
		return expr.FloatValue(math.Round((rng.Float64()*10-5)*100) / 100)
	}
}
