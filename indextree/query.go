package indextree

// Query returns the source file paths of every leaf whose filter claims to
// hold value, restricted to nodes overlapping [qStart, qEnd] (empty means
// unbounded on that side). metrics may be nil if the caller doesn't want
// counters.
func (t *Tree) Query(value, qStart, qEnd string, metrics *Metrics) []string {
	var results []string
	t.walk(t.root, value, qStart, qEnd, metrics, func(n *Node) bool {
		results = append(results, n.source)
		return false
	})
	return results
}

// QueryNodes is Query but returns the leaf Nodes themselves rather than
// just their source paths, for callers (the cross-column query engine)
// that need the leaf's range too.
func (t *Tree) QueryNodes(value, qStart, qEnd string, metrics *Metrics) []*Node {
	var results []*Node
	t.walk(t.root, value, qStart, qEnd, metrics, func(n *Node) bool {
		results = append(results, n)
		return false
	})
	return results
}

// walk is the shared depth-first traversal behind Query, QueryNodes, and
// Exists: prune on range, then on filter membership; descend into every
// child on an interior positive, invoke visit on a leaf positive. visit
// returns true to stop the whole walk early (used by Exists).
func (t *Tree) walk(n *Node, value, qStart, qEnd string, metrics *Metrics, visit func(*Node) bool) bool {
	if n == nil {
		return false
	}
	if !n.overlaps(qStart, qEnd) {
		return false
	}

	metrics.recordCheck(n)
	if !n.filter.Exists(value) {
		return false
	}

	if n.IsLeaf() {
		return visit(n)
	}

	for _, child := range n.children {
		if t.walk(child, value, qStart, qEnd, metrics, visit) {
			return true
		}
	}
	return false
}
