package tree

// Visitor is called once per visited node.
type Visitor func(id NodeID) bool

// Traverse visits from and then each child subtree in child order
// (pre-order, depth first). Every node is visited; the visitor's result is
// ignored. Size and counting rely on this.
func Traverse[T any](t *Tree[T], from NodeID, visit Visitor) {
	visit(from)
	for _, c := range t.nodes[from].children {
		Traverse(t, c, visit)
	}
}

// TraverseUntil is Traverse with early termination: the walk stops as soon
// as visit returns false. It reports whether the walk completed.
func TraverseUntil[T any](t *Tree[T], from NodeID, visit Visitor) bool {
	if !visit(from) {
		return false
	}
	for _, c := range t.nodes[from].children {
		if !TraverseUntil(t, c, visit) {
			return false
		}
	}
	return true
}

// Collect returns the ids of the subtree rooted at from in pre-order.
func Collect[T any](t *Tree[T], from NodeID) []NodeID {
	var ids []NodeID
	Traverse(t, from, func(id NodeID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}
