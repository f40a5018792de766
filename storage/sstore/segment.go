package sstore

import (
	"fmt"
	"sort"

	"bloomtree/storage"
	"bloomtree/storage/sstore/compression"
)

// segment is a fully-indexed, read-only view of one on-disk sorted file.
// Its index and decompressed value blob are loaded once and kept in memory
// for the segment's lifetime; callers obtain segments through Store, which
// caches them by path.
type segment struct {
	path    string
	entries []indexEntry
	values  []byte // decompressed value block, sliced by entries[i].valOffset/valLen
}

func openSegment(path string) (*segment, error) {
	f := newSegmentFile(path)
	if err := f.Open(true); err != nil {
		return nil, fmt.Errorf("sstore: unable to open %s: %s", path, err.Error())
	}
	defer f.Close()

	headerBuf := make([]byte, headerSize)
	if err := f.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("sstore: unable to read header of %s: %s", path, err.Error())
	}
	header, err := decodeSegmentHeader(headerBuf)
	if err != nil {
		return nil, fmt.Errorf("sstore: %s: %w", path, err)
	}

	indexBuf := make([]byte, header.indexLen)
	if err := f.ReadAt(indexBuf, headerSize); err != nil {
		return nil, fmt.Errorf("sstore: unable to read index of %s: %s", path, err.Error())
	}
	entries, err := decodeIndex(indexBuf, header.recordCount)
	if err != nil {
		return nil, fmt.Errorf("sstore: %s: %w", path, err)
	}

	compBuf := make([]byte, header.valueBlockCompLen)
	if err := f.ReadAt(compBuf, int64(headerSize)+int64(header.indexLen)); err != nil {
		return nil, fmt.Errorf("sstore: unable to read value block of %s: %s", path, err.Error())
	}
	values, err := compression.DecompressLz4(compBuf)
	if err != nil {
		return nil, fmt.Errorf("sstore: unable to decompress value block of %s: %s", path, err.Error())
	}
	if uint32(len(values)) != header.valueBlockRawLen {
		return nil, fmt.Errorf("sstore: %s: %w", path, ErrCorruptHeader)
	}

	return &segment{path: path, entries: entries, values: values}, nil
}

func (s *segment) value(e indexEntry) string {
	return string(s.values[e.valOffset : e.valOffset+e.valLen])
}

// lowerBound returns the index of the first entry with key >= key.
func (s *segment) lowerBound(key string) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].key >= key
	})
}

// pointGet returns the value stored for key, or storage.ErrNotFound.
func (s *segment) pointGet(key string) (string, error) {
	i := s.lowerBound(key)
	if i < len(s.entries) && s.entries[i].key == key {
		return s.value(s.entries[i]), nil
	}
	return "", storage.ErrNotFound
}

// scan returns every key in [rangeStart, rangeEnd] (empty bound means
// unbounded on that side) whose stored value equals value.
func (s *segment) scan(value, rangeStart, rangeEnd string) []string {
	start := 0
	if rangeStart != "" {
		start = s.lowerBound(rangeStart)
	}

	var out []string
	for i := start; i < len(s.entries); i++ {
		e := s.entries[i]
		if rangeEnd != "" && e.key > rangeEnd {
			break
		}
		if s.value(e) == value {
			out = append(out, e.key)
		}
	}
	return out
}

// recordIterator walks a segment's entries in key order without
// re-decompressing the value block per call.
type recordIterator struct {
	seg *segment
	pos int
}

func (it *recordIterator) Next() (storage.Record, bool, error) {
	if it.pos >= len(it.seg.entries) {
		return storage.Record{}, false, nil
	}
	e := it.seg.entries[it.pos]
	it.pos++
	return storage.Record{Key: e.key, Value: it.seg.value(e)}, true, nil
}

func (it *recordIterator) Close() error { return nil }
