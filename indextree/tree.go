package indextree

import (
	"errors"

	"bloomtree/bloomfilter"
)

// ErrEmptyTree is returned by Build when no leaves were added.
var ErrEmptyTree = errors.New("indextree: cannot build a tree with no leaves")

// Tree is a single-rooted, read-only-after-build hierarchical bloom filter
// index for one column family. It exclusively owns every Node reachable
// from its root; no Node outlives the Tree that produced it.
type Tree struct {
	fanout int
	m      uint64
	k      int32

	leaves []*Node
	root   *Node
}

// New creates an empty tree with the given fan-out and filter shape.
// Leaves are added with AddLeaf, then the tree is finalized with Build.
func New(fanout int, m uint64, k int32) *Tree {
	return &Tree{fanout: fanout, m: m, k: k}
}

// AddLeaf appends a leaf summarizing one partition of a source file. Leaves
// may be added concurrently from multiple goroutines only if the caller
// serializes access (Tree itself does no locking); the builder's per-file
// tasks call AddLeaf while holding a shared mutex.
func (t *Tree) AddLeaf(filter *bloomfilter.Filter, source, startKey, endKey string) *Node {
	n := &Node{filter: filter, source: source, startKey: startKey, endKey: endKey}
	t.leaves = append(t.leaves, n)
	return n
}

// SortLeavesByStartKey orders the pending leaves by startKey before Build.
// The reference implementation composes leaves in file-completion order,
// which can leave two interior siblings with overlapping ranges; calling
// this first produces non-overlapping interior ranges at the cost of losing
// that completion-order parallelism signal. Off by default.
func (t *Tree) SortLeavesByStartKey() {
	sortNodesByStartKey(t.leaves)
}

func sortNodesByStartKey(nodes []*Node) {
	// insertion sort: leaf counts per file partition are small and this
	// keeps the dependency list short; swap for sort.Slice if leaf counts
	// grow into the tens of thousands per tree.
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j-1].startKey > nodes[j].startKey; j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}

// Build composes the current leaves into a single root by grouping each
// level into runs of at most fanout and merging bloom filters / spanning
// ranges bottom-up. It is sequential and CPU-cheap relative to the
// per-file partitioning that produces the leaves.
func (t *Tree) Build() error {
	if len(t.leaves) == 0 {
		return ErrEmptyTree
	}

	level := make([]*Node, len(t.leaves))
	copy(level, t.leaves)

	for len(level) > 1 {
		level = t.buildLevel(level)
	}
	t.root = level[0]
	return nil
}

func (t *Tree) buildLevel(level []*Node) []*Node {
	var parents []*Node

	for i := 0; i < len(level); i += t.fanout {
		end := i + t.fanout
		if end > len(level) {
			end = len(level)
		}
		parents = append(parents, t.mergeGroup(level[i:end]))
	}

	return parents
}

func (t *Tree) mergeGroup(group []*Node) *Node {
	parent := &Node{
		filter:   bloomfilter.New(t.m, t.k),
		startKey: group[0].startKey,
		endKey:   group[0].endKey,
		children: group,
	}

	for _, child := range group {
		if child.startKey < parent.startKey {
			parent.startKey = child.startKey
		}
		if child.endKey > parent.endKey {
			parent.endKey = child.endKey
		}
		// Shape was fixed at tree construction, so this can only fail on a
		// programming error (a leaf built against a different (m,k)).
		if err := parent.filter.Merge(child.filter); err != nil {
			panic(err)
		}
	}

	return parent
}

// Root returns the tree's root node. It is nil until Build succeeds.
func (t *Tree) Root() *Node { return t.root }

// Leaves returns the tree's leaf nodes in the order they were added (i.e.
// file-completion order unless SortLeavesByStartKey was called first).
func (t *Tree) Leaves() []*Node { return t.leaves }

// Exists is a single-value, single-tree membership probe: "does any leaf in
// [qStart,qEnd] claim to hold value". It is a thin wrapper over the same
// depth-first walk as Query that short-circuits on the first hit.
func (t *Tree) Exists(value, qStart, qEnd string) bool {
	found := false
	t.walk(t.root, value, qStart, qEnd, nil, func(*Node) bool {
		found = true
		return true // stop
	})
	return found
}

// MemorySize returns the aggregate serialized size of interior-node
// filters (the part of the tree kept only in memory).
func (t *Tree) MemorySize() int {
	total := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if !n.IsLeaf() {
			total += n.filter.SerializedSize()
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(t.root)
	return total
}

// DiskSize returns the aggregate serialized size of leaf filters (the part
// of the tree persisted to sidecar files).
func (t *Tree) DiskSize() int {
	total := 0
	for _, leaf := range t.leaves {
		total += leaf.filter.SerializedSize()
	}
	return total
}
