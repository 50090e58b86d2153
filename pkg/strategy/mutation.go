package strategy

import (
	"fmt"
	"math/rand"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/tree"
)

const maxMutationDepth = 4

// SubtreeMutation replaces a random subtree with a freshly grown one that
// returns the narrowest type the old subtree returned.
type SubtreeMutation struct {
	Generator *pool.Generator
	MaxDepth  int // depth of the grown subtree, maxMutationDepth when zero
	Index     tree.IndexStrategy
}

func (m SubtreeMutation) Name() string { return "subtree-mutation" }

func (m SubtreeMutation) ParentsNeeded() int { return 1 }

func (m SubtreeMutation) OffspringProduced() int { return 1 }

func (m SubtreeMutation) Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if err := checkSlots(m, parents, parentIndex, offspring, offspringIndex); err != nil {
		return err
	}
	child := parents[parentIndex].Clone()
	target, err := mutationPoint(rng, child, m.Index)
	if err != nil {
		return err
	}
	want, ok := child.NodeType(target)
	if !ok {
		want = child.ReturnType
	}
	depth := m.MaxDepth
	if depth <= 0 {
		depth = maxMutationDepth
	}
	grown, err := m.Generator.Grow(child, rng, want, depth)
	if err != nil {
		return err
	}
	if err := child.ReplaceNode(target, grown); err != nil {
		return err
	}
	offspring[offspringIndex] = child
	return nil
}

// PointMutation swaps the template of a random node for another of the
// same arity that can return the same type, keeping the children. Leaves
// are regrown.
type PointMutation struct {
	Generator *pool.Generator
	Index     tree.IndexStrategy
}

func (m PointMutation) Name() string { return "point-mutation" }

func (m PointMutation) ParentsNeeded() int { return 1 }

func (m PointMutation) OffspringProduced() int { return 1 }

func (m PointMutation) Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if err := checkSlots(m, parents, parentIndex, offspring, offspringIndex); err != nil {
		return err
	}
	child := parents[parentIndex].Clone()
	target, err := mutationPoint(rng, child, m.Index)
	if err != nil {
		return err
	}
	want, ok := child.NodeType(target)
	if !ok {
		want = child.ReturnType
	}

	t := child.Template(target)
	if t.IsTerminal() {
		leaf, err := m.Generator.Grow(child, rng, want, 1)
		if err != nil {
			return err
		}
		if err := child.ReplaceNode(target, leaf); err != nil {
			return err
		}
		offspring[offspringIndex] = child
		return nil
	}

	cat := child.Context().Catalog()
	var same []int
	for _, idx := range cat.Find(expr.Types(want), false, true) {
		if cat.At(idx).Arity() == t.Arity() {
			same = append(same, idx)
		}
	}
	if len(same) > 0 {
		op := child.Tree().Value(target)
		op.Template = same[rng.Intn(len(same))]
		child.Tree().SetValue(target, op)
	}
	offspring[offspringIndex] = child
	return nil
}

// ConstMutation perturbs one constant leaf: ints move by 1 to 3 either way,
// floats get gaussian noise scaled by Sigma, bools flip.
type ConstMutation struct {
	Sigma float64 // 1 when zero
}

func (m ConstMutation) Name() string { return "const-mutation" }

func (m ConstMutation) ParentsNeeded() int { return 1 }

func (m ConstMutation) OffspringProduced() int { return 1 }

func (m ConstMutation) Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if err := checkSlots(m, parents, parentIndex, offspring, offspringIndex); err != nil {
		return err
	}
	child := parents[parentIndex].Clone()

	var consts []tree.NodeID
	tree.Traverse(child.Tree(), child.Root(), func(id tree.NodeID) bool {
		if child.Template(id).Data == expr.ConstData {
			consts = append(consts, id)
		}
		return true
	})
	if len(consts) == 0 {
		return fmt.Errorf("%w: no constant in program", ErrNoMutationPoint)
	}
	target := consts[rng.Intn(len(consts))]
	op := child.Tree().Value(target)
	op.Data = m.perturb(rng, op.Data)
	child.Tree().SetValue(target, op)
	offspring[offspringIndex] = child
	return nil
}

func (m ConstMutation) perturb(rng *rand.Rand, v expr.Value) expr.Value {
	switch v.Type() {
	case expr.Int:
		delta := int64(rng.Intn(3) + 1)
		if rng.Float64() < 0.5 {
			delta = -delta
		}
		return expr.IntValue(v.Int() + delta)
	case expr.Float:
		sigma := m.Sigma
		if sigma == 0 {
			sigma = 1
		}
		return expr.FloatValue(v.Float() + rng.NormFloat64()*sigma)
	case expr.Bool:
		return expr.BoolValue(!v.Bool())
	default:
		return v
	}
}

// HoistMutation replaces the whole program with a copy of one of its
// subtrees.
type HoistMutation struct {
	Index tree.IndexStrategy
}

func (m HoistMutation) Name() string { return "hoist-mutation" }

func (m HoistMutation) ParentsNeeded() int { return 1 }

func (m HoistMutation) OffspringProduced() int { return 1 }

func (m HoistMutation) Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if err := checkSlots(m, parents, parentIndex, offspring, offspringIndex); err != nil {
		return err
	}
	child := parents[parentIndex].Clone()
	target, err := mutationPoint(rng, child, m.Index)
	if err != nil {
		return err
	}
	if target != child.Root() {
		hoisted := child.Tree().CopySubtree(child.Tree(), target)
		if err := child.ReplaceNode(child.Root(), hoisted); err != nil {
			return err
		}
	}
	offspring[offspringIndex] = child
	return nil
}

// ShrinkMutation replaces a random inner node with one of its children.
type ShrinkMutation struct {
	Index tree.IndexStrategy
}

func (m ShrinkMutation) Name() string { return "shrink-mutation" }

func (m ShrinkMutation) ParentsNeeded() int { return 1 }

func (m ShrinkMutation) OffspringProduced() int { return 1 }

func (m ShrinkMutation) Apply(rng *rand.Rand, parents []*prg.Program, parentIndex int, offspring []*prg.Program, offspringIndex int) error {
	if err := checkSlots(m, parents, parentIndex, offspring, offspringIndex); err != nil {
		return err
	}
	child := parents[parentIndex].Clone()
	target, err := mutationPoint(rng, child, m.Index)
	if err != nil {
		return err
	}
	if n := child.Tree().ChildCount(target); n > 0 {
		kept := child.Tree().ChildNode(target, rng.Intn(n))
		moved := child.Tree().CopySubtree(child.Tree(), kept)
		if err := child.ReplaceNode(target, moved); err != nil {
			return err
		}
	}
	offspring[offspringIndex] = child
	return nil
}

func mutationPoint(rng *rand.Rand, p *prg.Program, s tree.IndexStrategy) (tree.NodeID, error) {
	i := s.Draw(rng, p.Size())
	id, ok := p.FindNode(i)
	if !ok {
		return tree.None, fmt.Errorf("%w: index %d in program of size %d", ErrNoMutationPoint, i, p.Size())
	}
	return id, nil
}

var (
	_ Operator = SubtreeMutation{}
	_ Operator = PointMutation{}
	_ Operator = ConstMutation{}
	_ Operator = HoistMutation{}
	_ Operator = ShrinkMutation{}
)
