package tree

import (
	"errors"
	"fmt"
	"slices"
)

// NodeID indexes a node inside the arena of the Tree that created it.
type NodeID int

// None is the NodeID returned when no node applies.
const None NodeID = -1

var (
	ErrInvalidNode = errors.New("invalid node id")
	ErrNodeOwned   = errors.New("node already has an owner")
	ErrCycle       = errors.New("node is an ancestor of the new parent")
	ErrDetached    = errors.New("node is not reachable from the root")
)

type node[T any] struct {
	value    T
	parent   NodeID
	children []NodeID
}

// Tree is an arena of nodes. Children are referenced by index, so copying a
// tree or grafting a subtree never aliases nodes between trees.
//
// A Tree is not safe for concurrent mutation.
type Tree[T any] struct {
	nodes []node[T]
	root  NodeID
}

// New creates a tree holding a single root node.
func New[T any](rootValue T) *Tree[T] {
	t := &Tree[T]{root: None}
	t.root = t.NewNode(rootValue)
	return t
}

// Empty creates a tree with no root. Build nodes with NewNode and pick one
// with SetRoot.
func Empty[T any]() *Tree[T] {
	return &Tree[T]{root: None}
}

// NewNode allocates a detached node. Attach it with AddChildNodes or Replace.
func (t *Tree[T]) NewNode(value T) NodeID {
	t.nodes = append(t.nodes, node[T]{value: value, parent: None})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree[T]) Root() NodeID { return t.root }

// SetRoot makes id the root. The previous root subtree becomes garbage.
func (t *Tree[T]) SetRoot(id NodeID) error {
	if !t.valid(id) {
		return fmt.Errorf("%w: %d", ErrInvalidNode, id)
	}
	if t.nodes[id].parent != None {
		return fmt.Errorf("%w: %d", ErrNodeOwned, id)
	}
	t.root = id
	return nil
}

func (t *Tree[T]) Value(id NodeID) T { return t.nodes[id].value }

func (t *Tree[T]) SetValue(id NodeID, v T) { t.nodes[id].value = v }

// Parent returns the owner of id, or None for the root and detached nodes.
func (t *Tree[T]) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// ChildNodes returns the children of id in insertion order.
func (t *Tree[T]) ChildNodes(id NodeID) []NodeID {
	return slices.Clone(t.nodes[id].children)
}

// ChildNode returns the i-th child of id.
func (t *Tree[T]) ChildNode(id NodeID, i int) NodeID { return t.nodes[id].children[i] }

// ChildCount returns the number of direct children of id.
func (t *Tree[T]) ChildCount(id NodeID) int { return len(t.nodes[id].children) }

// AddChildNodes appends ids to parent's children in the order given. Arity and
// types are not checked here. A child must be detached and must not be an
// ancestor of parent; nothing is appended when any child fails these checks.
func (t *Tree[T]) AddChildNodes(parent NodeID, ids ...NodeID) error {
	if !t.valid(parent) {
		return fmt.Errorf("%w: %d", ErrInvalidNode, parent)
	}
	seen := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		if !t.valid(id) {
			return fmt.Errorf("%w: %d", ErrInvalidNode, id)
		}
		if _, dup := seen[id]; dup || id == t.root || t.nodes[id].parent != None {
			return fmt.Errorf("%w: %d", ErrNodeOwned, id)
		}
		seen[id] = struct{}{}
		if t.isAncestor(id, parent) {
			return fmt.Errorf("%w: %d", ErrCycle, id)
		}
	}
	for _, id := range ids {
		t.nodes[id].parent = parent
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return nil
}

func (t *Tree[T]) IsLeaf(id NodeID) bool { return len(t.nodes[id].children) == 0 }

// AllLeafChildren reports whether every direct child of id is a leaf.
func (t *Tree[T]) AllLeafChildren(id NodeID) bool {
	for _, c := range t.nodes[id].children {
		if !t.IsLeaf(c) {
			return false
		}
	}
	return true
}

// Size counts id and all of its descendants. It walks the subtree on every
// call.
func (t *Tree[T]) Size(id NodeID) int {
	count := 0
	Traverse(t, id, func(NodeID) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in the subtree rooted at id.
func (t *Tree[T]) Depth(id NodeID) int {
	deepest := 0
	for _, c := range t.nodes[id].children {
		if d := t.Depth(c); d > deepest {
			deepest = d
		}
	}
	return 1 + deepest
}

// Clone returns a deep copy of the reachable tree. Garbage left behind by
// Replace is dropped and the copy is laid out in pre-order.
func (t *Tree[T]) Clone() *Tree[T] {
	c := &Tree[T]{root: None, nodes: make([]node[T], 0, t.Size(t.root))}
	c.root = c.CopySubtree(t, t.root)
	return c
}

// CopySubtree deep copies the subtree of src rooted at srcID into t and
// returns the detached copy. src may be t itself.
func (t *Tree[T]) CopySubtree(src *Tree[T], srcID NodeID) NodeID {
	id := t.NewNode(src.nodes[srcID].value)
	children := src.nodes[srcID].children
	if len(children) == 0 {
		return id
	}
	copied := make([]NodeID, len(children))
	for i, c := range children {
		copied[i] = t.CopySubtree(src, c)
		t.nodes[copied[i]].parent = id
	}
	t.nodes[id].children = copied
	return id
}

// Replace puts the detached subtree rooted at with into target's slot. When
// target is the root, with becomes the root. target is left detached.
func (t *Tree[T]) Replace(target, with NodeID) error {
	if !t.valid(target) {
		return fmt.Errorf("%w: %d", ErrInvalidNode, target)
	}
	if !t.valid(with) {
		return fmt.Errorf("%w: %d", ErrInvalidNode, with)
	}
	if with == t.root || t.nodes[with].parent != None {
		return fmt.Errorf("%w: %d", ErrNodeOwned, with)
	}
	if !t.reachable(target) {
		return fmt.Errorf("%w: %d", ErrDetached, target)
	}
	if target == t.root {
		t.root = with
		return nil
	}

	p := t.nodes[target].parent
	slot := slices.Index(t.nodes[p].children, target)
	t.nodes[p].children[slot] = with
	t.nodes[with].parent = p
	t.nodes[target].parent = None
	return nil
}

func (t *Tree[T]) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// isAncestor reports whether a is n or one of n's ancestors.
func (t *Tree[T]) isAncestor(a, n NodeID) bool {
	for cur := n; cur != None; cur = t.nodes[cur].parent {
		if cur == a {
			return true
		}
	}
	return false
}

func (t *Tree[T]) reachable(id NodeID) bool {
	cur := id
	for t.nodes[cur].parent != None {
		cur = t.nodes[cur].parent
	}
	return cur == t.root
}
