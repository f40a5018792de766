// Package query implements the cross-column depth-first query engine
// (C5): MultiColumnQuery co-descends one indextree.Tree per column,
// tightening a joint key range at every level, and only falls through to
// real file scans once every column's current node is a leaf.
package query

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"bloomtree/indextree"
	"bloomtree/storage"
)

// pendingCombo is one unit of work on the engine's explicit traversal
// stack: one node per column plus the joint range their combined query is
// currently restricted to (see the glossary's "combo").
type pendingCombo struct {
	nodes      []*indextree.Node
	start, end string
}

// MultiColumnQuery returns the row keys for which every column holds its
// requested value, restricted to [globalStart, globalEnd] (empty bound
// means unbounded on that side). len(trees) must equal len(values) and be
// at least 1, or ErrShapeMismatch is returned synchronously.
//
// The traversal is written iteratively with an explicit stack rather than
// recursively: the cross-product expansion at each level has a branching
// factor that is itself data-dependent, and a stack makes the range
// tightened-so-far at each step explicit state rather than call-stack
// state.
func MultiColumnQuery(
	trees []*indextree.Tree,
	values []string,
	globalStart, globalEnd string,
	adapter storage.Adapter,
) ([]string, *Metrics, error) {
	metrics := NewMetrics()

	if len(trees) != len(values) || len(trees) == 0 {
		return nil, metrics, ErrShapeMismatch
	}

	roots := make([]*indextree.Node, len(trees))
	for i, t := range trees {
		roots[i] = t.Root()
	}

	s := globalStart
	if s == "" {
		s = roots[0].StartKey()
	}
	e := globalEnd
	if e == "" {
		e = roots[0].EndKey()
	}
	for _, r := range roots {
		if r.StartKey() > s {
			s = r.StartKey()
		}
		if r.EndKey() < e {
			e = r.EndKey()
		}
	}

	for i, r := range roots {
		metrics.recordCheck(r.IsLeaf())
		if !r.Filter().Exists(values[i]) {
			return nil, metrics, nil
		}
	}

	result := make(map[string]struct{})
	stack := []pendingCombo{{nodes: roots, start: s, end: e}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.start > cur.end {
			continue
		}

		if allLeaves(cur.nodes) {
			matches, err := scanCombo(cur, values, adapter, metrics)
			if err != nil {
				return nil, metrics, err
			}
			for k := range matches {
				result[k] = struct{}{}
			}
			continue
		}

		expanded, ok := expandLevel(cur, values, metrics)
		if !ok {
			continue
		}
		stack = append(stack, expanded...)
	}

	return sortedKeys(result), metrics, nil
}

func allLeaves(nodes []*indextree.Node) bool {
	for _, n := range nodes {
		if !n.IsLeaf() {
			return false
		}
	}
	return true
}

// overlaps reports whether n's [startKey,endKey] range intersects
// [qStart,qEnd], where an empty bound means unbounded on that side.
func overlaps(n *indextree.Node, qStart, qEnd string) bool {
	if qEnd != "" && n.StartKey() > qEnd {
		return false
	}
	if qStart != "" && n.EndKey() < qStart {
		return false
	}
	return true
}

// expandLevel produces candidate children for every column, tightening the
// joint range after each column per §4.4 step 3, then enumerates the
// cross product of survivors into new pending combos. ok is false if any
// column ends up with zero surviving candidates, meaning the whole combo
// is pruned.
func expandLevel(cur pendingCombo, values []string, metrics *Metrics) ([]pendingCombo, bool) {
	candidateOptions := make([][]*indextree.Node, len(cur.nodes))
	s, e := cur.start, cur.end

	for i, n := range cur.nodes {
		var opts []*indextree.Node
		if n.IsLeaf() {
			opts = []*indextree.Node{n}
		} else {
			for _, child := range n.Children() {
				if !overlaps(child, s, e) {
					continue
				}
				metrics.recordCheck(child.IsLeaf())
				if child.Filter().Exists(values[i]) {
					opts = append(opts, child)
				}
			}
		}

		if len(opts) == 0 {
			return nil, false
		}

		colMin, colMax := opts[0].StartKey(), opts[0].EndKey()
		for _, o := range opts[1:] {
			if o.StartKey() < colMin {
				colMin = o.StartKey()
			}
			if o.EndKey() > colMax {
				colMax = o.EndKey()
			}
		}
		if colMin > s {
			s = colMin
		}
		if colMax < e {
			e = colMax
		}
		candidateOptions[i] = opts
	}

	return enumerateAssignments(candidateOptions, s, e), true
}

// enumerateAssignments walks the cross product of candidateOptions column
// by column, maintaining a running range intersection and skipping any
// partial assignment that would make start > end.
func enumerateAssignments(candidateOptions [][]*indextree.Node, start, end string) []pendingCombo {
	n := len(candidateOptions)
	chosen := make([]*indextree.Node, n)
	var out []pendingCombo

	var recurse func(i int, cs, ce string)
	recurse = func(i int, cs, ce string) {
		if i == n {
			combo := make([]*indextree.Node, n)
			copy(combo, chosen)
			out = append(out, pendingCombo{nodes: combo, start: cs, end: ce})
			return
		}
		for _, cand := range candidateOptions[i] {
			ncs, nce := cs, ce
			if cand.StartKey() > ncs {
				ncs = cand.StartKey()
			}
			if cand.EndKey() < nce {
				nce = cand.EndKey()
			}
			if ncs > nce {
				continue
			}
			chosen[i] = cand
			recurse(i+1, ncs, nce)
		}
	}
	recurse(0, start, end)
	return out
}

// scanCombo dispatches one parallel file scan per column for a combo whose
// nodes are all leaves, then folds the per-column key sets into their
// intersection in declaration order, short-circuiting on empty.
func scanCombo(cur pendingCombo, values []string, adapter storage.Adapter, metrics *Metrics) (map[string]struct{}, error) {
	n := len(cur.nodes)
	perColumn := make([][]string, n)

	var eg errgroup.Group
	for i, node := range cur.nodes {
		i, node := i, node
		eg.Go(func() error {
			scanStart := cur.start
			if node.StartKey() > scanStart {
				scanStart = node.StartKey()
			}
			scanEnd := cur.end
			if node.EndKey() < scanEnd {
				scanEnd = node.EndKey()
			}

			keys, err := adapter.ScanFile(node.Source(), values[i], scanStart, scanEnd)
			if err != nil {
				return fmt.Errorf("query: scan failed on %s: %s", node.Source(), err.Error())
			}
			perColumn[i] = keys
			return nil
		})
	}
	metrics.recordScans(n)

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	base := toSet(perColumn[0])
	for i := 1; i < n && len(base) > 0; i++ {
		base = intersectSet(base, perColumn[i])
	}
	return base, nil
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func intersectSet(set map[string]struct{}, keys []string) map[string]struct{} {
	present := toSet(keys)
	out := make(map[string]struct{})
	for k := range set {
		if _, ok := present[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
