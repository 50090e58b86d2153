package strategy

import (
	"fmt"
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

// SubtreeCrossover exchanges subtrees between two parents. One point is
// drawn in each parent per call, and every offspring of the call is a copy
// of the first parent with the subtree at its point replaced by a copy of
// the second parent's subtree. Points are not re-drawn per offspring.
//
// With UniformIndex the operator never fails on non-empty parents.
// LegacyIndex draws mostly out-of-range points, reported as
// ErrNoCrossoverPoint.
type SubtreeCrossover struct {
	Index tree.IndexStrategy
	Count int // offspring per call, 1 when zero
}

func (c SubtreeCrossover) Name() string { return "subtree-crossover" }

func (c SubtreeCrossover) ParentsNeeded() int { return 2 }

func (c SubtreeCrossover) OffspringProduced() int {
	if c.Count <= 0 {
		return 1
	}
	return c.Count
}

func (c SubtreeCrossover) Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if err := checkSlots(c, parents, parentIndex, offspring, offspringIndex); err != nil {
		return err
	}
	p1, p2 := parents[parentIndex], parents[parentIndex+1]

	i1 := c.Index.Draw(rng, p1.Size())
	i2 := c.Index.Draw(rng, p2.Size())
	if _, ok := p1.FindNode(i1); !ok {
		return fmt.Errorf("%w: index %d in first parent of size %d", ErrNoCrossoverPoint, i1, p1.Size())
	}
	donor, ok := p2.FindNode(i2)
	if !ok {
		return fmt.Errorf("%w: index %d in second parent of size %d", ErrNoCrossoverPoint, i2, p2.Size())
	}

	for k := 0; k < c.OffspringProduced(); k++ {
		child := p1.Clone()
		// Clone keeps pre-order, so i1 names the same position in the copy.
		target, _ := child.FindNode(i1)
		graft, err := child.Graft(p2, donor)
		if err != nil {
			return err
		}
		if err := child.ReplaceNode(target, graft); err != nil {
			return err
		}
		offspring[offspringIndex+k] = child
	}
	return nil
}

var _ Operator = SubtreeCrossover{}
