// Package builder implements the bulk construction pipeline (C4): it walks
// a column's sorted source files through the storage adapter, partitions
// each into leaf-sized runs, and composes the resulting leaves into an
// indextree.Tree.
package builder

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bloomtree/bloomfilter"
	"bloomtree/indextree"
	"bloomtree/storage"
)

// Builder partitions a column's source files and composes them into a
// Tree, per Config. It holds no state between calls to Build; a single
// Builder may build several columns' trees sequentially or be discarded
// after one.
type Builder struct {
	cfg     Config
	storage storage.Adapter
}

// New returns a Builder that reads through adapter using cfg's geometry.
func New(cfg Config, adapter storage.Adapter) *Builder {
	return &Builder{cfg: cfg, storage: adapter}
}

// leafSpec is one partition collected from a file, not yet attached to a
// tree.
type leafSpec struct {
	filter *bloomfilter.Filter
	start  string
	end    string
}

// Build partitions every source file storage reports for column in
// parallel, then composes the collected leaves into a single Tree. A file
// that fails to iterate (IoFailure) is logged and skipped; the rest of the
// build proceeds without it, per the error handling design's "a build task
// may mark its file skipped and continue" policy.
func (b *Builder) Build(column string) (*indextree.Tree, error) {
	files, err := b.storage.ListFiles(column)
	if err != nil {
		return nil, fmt.Errorf("builder: unable to list files for column %s: %s", column, err.Error())
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	buildID := uuid.New()
	slog.Info("build started", "build_id", buildID, "column", column, "files", len(files))

	tree := indextree.New(b.cfg.Fanout, b.cfg.M, b.cfg.K)

	var mu sync.Mutex
	group := new(errgroup.Group)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for _, file := range files {
		file := file
		group.Go(func() error {
			taskID := uuid.New()
			specs, err := b.partitionFile(file, taskID)
			if err != nil {
				color.Red("builder: skipping %s: %s", file, err.Error())
				slog.Warn("partition failed, file skipped", "task_id", taskID, "file", file, "err", err.Error())
				return nil
			}

			mu.Lock()
			for _, spec := range specs {
				tree.AddLeaf(spec.filter, file, spec.start, spec.end)
			}
			mu.Unlock()
			return nil
		})
	}

	// Partition failures are swallowed per-file above (IoFailure is
	// logged, not fatal to the build); the only error this can return is
	// from a future task that decides to propagate, which there currently
	// is none of.
	_ = group.Wait()

	if b.cfg.SortLeaves {
		tree.SortLeavesByStartKey()
	}

	if err := tree.Build(); err != nil {
		return nil, err
	}

	if b.cfg.SidecarDir != "" {
		if err := b.persistSidecars(tree); err != nil {
			return nil, err
		}
	}

	slog.Info("build finished", "build_id", buildID, "column", column, "leaves", len(tree.Leaves()))
	return tree, nil
}

// partitionFile iterates one source file in key order, opening a fresh
// filter per run of N records and emitting a leaf when a run fills or the
// iterator ends with a non-empty partial run.
func (b *Builder) partitionFile(file string, taskID uuid.UUID) ([]leafSpec, error) {
	it, err := b.storage.IterateFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %s", file, err.Error())
	}
	defer it.Close()

	slog.Info("partition started", "task_id", taskID, "file", file)

	var specs []leafSpec
	var filter *bloomfilter.Filter
	var start, end string
	count := 0

	flush := func() {
		specs = append(specs, leafSpec{filter: filter, start: start, end: end})
		filter = nil
		count = 0
	}

	for {
		rec, ok, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("iteration failed on %s: %s", file, err.Error())
		}
		if !ok {
			break
		}

		if count == 0 {
			filter = bloomfilter.New(b.cfg.M, b.cfg.K)
			start = rec.Key
		}
		filter.Insert(rec.Value)
		end = rec.Key
		count++

		if count == b.cfg.N {
			flush()
		}
	}
	if count > 0 {
		flush()
	}

	slog.Info("partition finished", "task_id", taskID, "file", file, "leaves", len(specs))
	return specs, nil
}

// persistSidecars saves every leaf's filter to
// "<SidecarDir>/<base(file)>_<startKey>_<endKey>", per §4.2/§6's sidecar
// naming rule. It is a best-effort pass: an individual leaf's save failure
// is an IoFailure, logged and skipped rather than failing the whole build,
// since the in-memory tree (the thing queries actually use) is already
// complete by this point.
func (b *Builder) persistSidecars(tree *indextree.Tree) error {
	for _, leaf := range tree.Leaves() {
		name := fmt.Sprintf("%s_%s_%s", filepath.Base(leaf.Source()), leaf.StartKey(), leaf.EndKey())
		path := filepath.Join(b.cfg.SidecarDir, name)
		if err := leaf.Filter().Save(path); err != nil {
			color.Red("builder: unable to persist sidecar %s: %s", path, err.Error())
			slog.Warn("sidecar persist failed", "path", path, "err", err.Error())
			continue
		}
	}
	return nil
}
