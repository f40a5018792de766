package query

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"bloomtree/indextree"
	"bloomtree/storage"
)

// SingleColumnQuery is the auxiliary single-tree query of §4.5: it selects
// candidate leaves using only columns[0]'s tree, scans each candidate file
// in parallel for columns[0]'s value, then for each surviving key
// point-gets every other column and keeps the key only if every value
// matches. It answers the same question as MultiColumnQuery; its
// performance characteristics (no cross-column range tightening, no
// cross-column bloom pruning before the point-get stage) are the subject
// of the evaluation, not a behavioral difference.
//
// trees[0] must be non-nil; other entries are unused (SingleColumnQuery
// never touches a tree for columns[1:], only the storage adapter), and a
// nil trees[0] is an ErrMissingTree, returned synchronously rather than
// panicking the first time it's dereferenced.
func SingleColumnQuery(
	trees []*indextree.Tree,
	columns []string,
	values []string,
	adapter storage.Adapter,
) ([]string, *Metrics, error) {
	metrics := NewMetrics()

	if len(columns) != len(values) || len(columns) == 0 {
		return nil, metrics, ErrShapeMismatch
	}
	if len(trees) == 0 || trees[0] == nil {
		return nil, metrics, ErrMissingTree
	}

	// Root check: skip the candidate-gathering walk entirely when no leaf
	// in the tree even claims to hold values[0].
	if !trees[0].Exists(values[0], "", "") {
		return nil, metrics, nil
	}

	treeMetrics := indextree.NewMetrics()
	leaves := trees[0].QueryNodes(values[0], "", "", treeMetrics)
	metrics.FilterChecks.Add(treeMetrics.FilterChecks.Load())
	metrics.LeafFilterChecks.Add(treeMetrics.LeafFilterChecks.Load())

	if len(leaves) == 0 {
		return nil, metrics, nil
	}

	candidates, err := scanLeavesForColumn0(leaves, columns[0], values[0], adapter, metrics)
	if err != nil {
		return nil, metrics, err
	}

	if len(columns) == 1 {
		return sortedKeys(toSet(candidates)), metrics, nil
	}

	matched, err := confirmOtherColumns(candidates, columns[1:], values[1:], adapter)
	if err != nil {
		return nil, metrics, err
	}

	sort.Strings(matched)
	return matched, metrics, nil
}

func scanLeavesForColumn0(
	leaves []*indextree.Node,
	column, value string,
	adapter storage.Adapter,
	metrics *Metrics,
) ([]string, error) {
	results := make([][]string, len(leaves))

	var eg errgroup.Group
	for i, leaf := range leaves {
		i, leaf := i, leaf
		eg.Go(func() error {
			keys, err := adapter.ScanFile(leaf.Source(), value, leaf.StartKey(), leaf.EndKey())
			if err != nil {
				return err
			}
			results[i] = keys
			return nil
		})
	}
	metrics.recordScans(len(leaves))

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// confirmOtherColumns point-gets columns[1:] for every candidate key and
// keeps the key only if all of them equal the corresponding requested
// value. A point-get miss (storage.ErrNotFound) simply disqualifies the
// key, matching the error design's "no error affects correctness" rule: a
// missing value is equivalent to a non-match, not a fault.
func confirmOtherColumns(candidates []string, columns, values []string, adapter storage.Adapter) ([]string, error) {
	var mu sync.Mutex
	var matched []string

	var eg errgroup.Group
	for _, key := range candidates {
		key := key
		eg.Go(func() error {
			ok, err := matchesAllColumns(key, columns, values, adapter)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				matched = append(matched, key)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return matched, nil
}

func matchesAllColumns(key string, columns, values []string, adapter storage.Adapter) (bool, error) {
	for i, column := range columns {
		v, err := adapter.PointGet(column, key)
		if err == storage.ErrNotFound {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if v != values[i] {
			return false, nil
		}
	}
	return true, nil
}
