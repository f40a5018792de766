package sstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"bloomtree/storage"
	"bloomtree/storage/sstore/compression"
)

// Writer produces sorted segment files for one column family. It is the
// "external sorted-file engine" write path: the index core never calls into
// it, and it has none of the merge/compaction logic a real LSM engine would
// need, only enough to materialize sorted segments for the storage adapter
// to serve.
type Writer struct {
	root string
}

// NewWriter returns a Writer rooted at dir; column segments are written
// under dir/<column>/.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// WriteSegment writes records (which must already be in ascending key
// order) as one new segment file for column, returning its path. An empty
// name generates a fresh uuid-based filename, mirroring the teacher's use
// of uuid.UUID as the identifier for new slabs and blocks.
func (w *Writer) WriteSegment(column string, name string, records []storage.Record) (string, error) {
	if err := requireSorted(records); err != nil {
		return "", err
	}

	dir := filepath.Join(w.root, column)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("sstore: unable to create column dir %s: %s", dir, err.Error())
	}

	if name == "" {
		name = uuid.NewString() + ".seg"
	}
	path := filepath.Join(dir, name)

	entries := make([]indexEntry, 0, len(records))
	var raw bytes.Buffer
	for _, rec := range records {
		entries = append(entries, indexEntry{
			key:       rec.Key,
			valOffset: uint32(raw.Len()),
			valLen:    uint32(len(rec.Value)),
		})
		raw.WriteString(rec.Value)
	}

	var compressed bytes.Buffer
	if err := compression.CompressLz4(raw.Bytes(), &compressed); err != nil {
		return "", fmt.Errorf("sstore: unable to compress value block for %s: %s", path, err.Error())
	}

	indexBytes := encodeIndex(entries)
	header := segmentHeader{
		version:           segmentVersion,
		recordCount:       uint32(len(records)),
		indexLen:          uint32(len(indexBytes)),
		valueBlockRawLen:  uint32(raw.Len()),
		valueBlockCompLen: uint32(compressed.Len()),
	}

	f := newSegmentFile(path)
	if err := f.Open(false); err != nil {
		return "", fmt.Errorf("sstore: unable to open %s for write: %s", path, err.Error())
	}
	defer f.Close()

	if err := f.WriteAt(header.encode(), 0); err != nil {
		return "", err
	}
	if err := f.WriteAt(indexBytes, headerSize); err != nil {
		return "", err
	}
	if err := f.WriteAt(compressed.Bytes(), int64(headerSize)+int64(len(indexBytes))); err != nil {
		return "", err
	}

	return path, nil
}

func requireSorted(records []storage.Record) error {
	for i := 1; i < len(records); i++ {
		if records[i-1].Key > records[i].Key {
			return ErrUnsortedRecords
		}
	}
	return nil
}
