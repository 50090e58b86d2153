package tree

import "fmt"

// Rand is the randomness a locator or operator draws from. *rand.Rand
// satisfies it. Callers confine a Rand to one goroutine or lock around it.
type Rand interface {
	Intn(n int) int
}

// IndexStrategy turns a subtree size into a pre-order index to look up.
type IndexStrategy int

const (
	// UniformIndex draws uniformly from [0, size).
	UniformIndex IndexStrategy = iota
	// LegacyIndex draws size * Intn(size). Only a draw of zero lands inside
	// the tree, so for size > 1 it selects the root with probability 1/size
	// and finds nothing otherwise. Kept to reproduce old runs.
	LegacyIndex
)

func (s IndexStrategy) String() string {
	switch s {
	case UniformIndex:
		return "uniform"
	case LegacyIndex:
		return "legacy"
	default:
		return fmt.Sprintf("IndexStrategy(%d)", int(s))
	}
}

// ParseIndexStrategy maps "uniform" or "legacy" to a strategy.
func ParseIndexStrategy(name string) (IndexStrategy, error) {
	switch name {
	case "", "uniform":
		return UniformIndex, nil
	case "legacy":
		return LegacyIndex, nil
	default:
		return UniformIndex, fmt.Errorf("unknown index strategy: %s", name)
	}
}

// Draw picks an index for a subtree of the given size.
func (s IndexStrategy) Draw(rng Rand, size int) int {
	if size <= 0 {
		return -1
	}
	if s == LegacyIndex {
		return size * rng.Intn(size)
	}
	return rng.Intn(size)
}

// FindIndex returns the node at the given pre-order position below from,
// where position 0 is from itself. ok is false when index is outside
// [0, Size(from)).
func FindIndex[T any](t *Tree[T], from NodeID, index int) (id NodeID, ok bool) {
	if index < 0 {
		return None, false
	}
	found := None
	remaining := index
	TraverseUntil(t, from, func(n NodeID) bool {
		if remaining == 0 {
			found = n
			return false
		}
		remaining--
		return true
	})
	return found, found != None
}

// RandomNode selects a node of the subtree rooted at from. ok is false when
// the drawn index falls outside the subtree, which only LegacyIndex produces.
func RandomNode[T any](t *Tree[T], from NodeID, rng Rand, s IndexStrategy) (NodeID, bool) {
	return FindIndex(t, from, s.Draw(rng, t.Size(from)))
}
