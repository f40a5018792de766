package sstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"bloomtree/storage"
)

// Store implements storage.Adapter over directories of segment files, one
// subdirectory per column family. It is the concrete storage engine the
// index core is built against in this repo, but nothing in builder or
// query imports it directly; they only ever see storage.Adapter.
type Store struct {
	root string

	mu       sync.RWMutex
	segments map[string]*segment

	openGroup singleflight.Group
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir, segments: make(map[string]*segment)}
}

// ListFiles returns every segment file under the column's directory, sorted
// by filename (new segments from Writer use uuid names, so this is not a
// key-ordering guarantee, only a stable enumeration order).
func (s *Store) ListFiles(column string) ([]string, error) {
	dir := filepath.Join(s.root, column)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sstore: unable to list column %s: %s", column, err.Error())
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// openCached returns the cached segment for path, opening and indexing it
// on first access. Concurrent callers asking for the same path during a
// build burst share a single open via singleflight, mirroring the teacher's
// slab_manager.go loadGroup.
func (s *Store) openCached(path string) (*segment, error) {
	s.mu.RLock()
	seg, ok := s.segments[path]
	s.mu.RUnlock()
	if ok {
		return seg, nil
	}

	v, err, _ := s.openGroup.Do(path, func() (any, error) {
		s.mu.RLock()
		seg, ok := s.segments[path]
		s.mu.RUnlock()
		if ok {
			return seg, nil
		}

		loaded, err := openSegment(path)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.segments[path] = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*segment), nil
}

// ScanFile returns every key in path whose stored value equals value,
// restricted to [rangeStart, rangeEnd].
func (s *Store) ScanFile(path, value, rangeStart, rangeEnd string) ([]string, error) {
	seg, err := s.openCached(path)
	if err != nil {
		return nil, err
	}
	return seg.scan(value, rangeStart, rangeEnd), nil
}

// PointGet returns the value stored for key in column, checking segments in
// ListFiles order and returning the first match. Real LSM engines would
// check the most recently written segment first to honor overwrite
// semantics; this store has no overwrite semantics (segments are immutable,
// disjoint write-once partitions), so enumeration order doesn't matter for
// correctness here.
func (s *Store) PointGet(column, key string) (string, error) {
	paths, err := s.ListFiles(column)
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		seg, err := s.openCached(path)
		if err != nil {
			return "", err
		}
		if v, err := seg.pointGet(key); err == nil {
			return v, nil
		}
	}
	return "", storage.ErrNotFound
}

// IterateFile opens path (via the same cache and singleflight dedupe as
// ScanFile/PointGet) and returns a fresh sequential iterator over it. The
// builder calls this once per file during per-file partitioning; multiple
// concurrent Build calls over the same file share one decompression.
func (s *Store) IterateFile(path string) (storage.RecordIterator, error) {
	seg, err := s.openCached(path)
	if err != nil {
		return nil, err
	}
	return &recordIterator{seg: seg}, nil
}
