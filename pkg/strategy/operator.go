package strategy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/prg"
)

var (
	ErrNoParents        = errors.New("not enough parents")
	ErrNoOffspringRoom  = errors.New("not enough room for offspring")
	ErrEmptyParent      = errors.New("parent program is empty")
	ErrNoCrossoverPoint = errors.New("no crossover point found")
	ErrNoMutationPoint  = errors.New("no mutation point found")
	ErrProbability      = errors.New("probability must be within [0, 1]")
	ErrProbabilitySum   = errors.New("operator probabilities must sum to 1")
	ErrNoOperators      = errors.New("operator list is empty")
)

// Operator builds offspring from parents. It reads
// parents[parentIndex:parentIndex+ParentsNeeded()] and writes
// offspring[offspringIndex:offspringIndex+OffspringProduced()]. Parents are
// never modified. Offspring are not checked for legality; run a prg.Checker
// before using them.
type Operator interface {
	Name() string
	ParentsNeeded() int
	OffspringProduced() int
	Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error
}

func checkSlots(op Operator, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if parentIndex < 0 || parentIndex+op.ParentsNeeded() > len(parents) {
		return fmt.Errorf("%s: %w: need %d from index %d, have %d", op.Name(), ErrNoParents, op.ParentsNeeded(), parentIndex, len(parents))
	}
	if offspringIndex < 0 || offspringIndex+op.OffspringProduced() > len(offspring) {
		return fmt.Errorf("%s: %w", op.Name(), ErrNoOffspringRoom)
	}
	for _, p := range parents[parentIndex : parentIndex+op.ParentsNeeded()] {
		if p == nil || p.Size() == 0 {
			return fmt.Errorf("%s: %w", op.Name(), ErrEmptyParent)
		}
	}
	return nil
}

// Weighted pairs an operator with the probability of choosing it. It is a
// plain value; OperatorList does the drawing.
type Weighted struct {
	op          Operator
	probability float64
}

func NewWeighted(op Operator, probability float64) (Weighted, error) {
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return Weighted{}, fmt.Errorf("%w: %s has %v", ErrProbability, op.Name(), probability)
	}
	return Weighted{op: op, probability: probability}, nil
}

func (w Weighted) Operator() Operator { return w.op }

func (w Weighted) Probability() float64 { return w.probability }

// OperatorList is a cumulative probability table over weighted operators.
type OperatorList struct {
	entries    []Weighted
	cumulative []float64
}

// NewOperatorList requires the probabilities to sum to 1.
func NewOperatorList(entries ...Weighted) (*OperatorList, error) {
	if len(entries) == 0 {
		return nil, ErrNoOperators
	}
	l := &OperatorList{entries: entries, cumulative: make([]float64, len(entries))}
	total := 0.0
	for i, e := range entries {
		total += e.probability
		l.cumulative[i] = total
	}
	if math.Abs(total-1) > expr.DefaultDoubleEqual {
		return nil, fmt.Errorf("%w: got %v", ErrProbabilitySum, total)
	}
	return l, nil
}

// Normalized builds a list from raw weights, scaling them to sum to 1.
func Normalized(ops []Operator, weights []float64) (*OperatorList, error) {
	if len(ops) == 0 || len(ops) != len(weights) {
		return nil, ErrNoOperators
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: weight %v", ErrProbability, w)
		}
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: all weights are zero", ErrProbabilitySum)
	}
	entries := make([]Weighted, len(ops))
	for i, op := range ops {
		entries[i] = Weighted{op: op, probability: weights[i] / total}
	}
	return NewOperatorList(entries...)
}

func (l *OperatorList) Len() int { return len(l.entries) }

// Entries returns the weighted operators in list order.
func (l *OperatorList) Entries() []Weighted {
	out := make([]Weighted, len(l.entries))
	copy(out, l.entries)
	return out
}

// Pick draws an operator according to the table.
func (l *OperatorList) Pick(rng *rand.Rand) Operator {
	r := rng.Float64()
	for i, c := range l.cumulative {
		if r < c {
			return l.entries[i].op
		}
	}
	return l.entries[len(l.entries)-1].op
}

// PickFor draws among the operators that need at most parents parents,
// renormalizing their probabilities. ok is false when none qualifies.
func (l *OperatorList) PickFor(rng *rand.Rand, parents int) (Operator, bool) {
	total := 0.0
	for _, e := range l.entries {
		if e.op.ParentsNeeded() <= parents {
			total += e.probability
		}
	}
	if total == 0 {
		return nil, false
	}
	r := rng.Float64() * total
	var last Operator
	for _, e := range l.entries {
		if e.op.ParentsNeeded() > parents || e.probability == 0 {
			continue
		}
		last = e.op
		if r < e.probability {
			return e.op, true
		}
		r -= e.probability
	}
	return last, last != nil
}
