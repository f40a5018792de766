// Package sstore is a minimal sorted-file engine that satisfies the
// storage.Adapter contract the index core depends on (see storage.Adapter).
// It plays the role of the "external sorted-file engine" the index is
// explicitly not responsible for: record insertion and iteration live
// here, outside the core packages (bloomfilter, indextree, builder, query).
// It has no compaction.
//
// On-disk layout of one segment file, offsets fixed-width and little-endian
// (mirrors the teacher's block.DiskHeader-then-payload layout):
//
//	*----------------------------------*
//	| version            (2 bytes)     |
//	| record count        (4 bytes)    |
//	| index length         (4 bytes)   |
//	| value block raw len  (4 bytes)   |
//	| value block comp len (4 bytes)   |
//	*----------------------------------*
//	| index: per record                |
//	|   key length (2) + key bytes     |
//	|   value offset (4)               |
//	|   value length (4)               |
//	*----------------------------------*
//	| lz4-compressed value block       |
//	*----------------------------------*
//
// Keys are stored in the index in ascending order; values are concatenated
// in the same order and compressed as a single lz4 block, so a point lookup
// or range scan pays the decompression cost once per file, not once per
// record.
package sstore

import (
	"bytes"
	"encoding/binary"

	"bloomtree/encoding/binenc"
)

const segmentVersion uint16 = 1

const headerSize = 2 + 4 + 4 + 4 + 4

type segmentHeader struct {
	version           uint16
	recordCount       uint32
	indexLen          uint32
	valueBlockRawLen  uint32
	valueBlockCompLen uint32
}

func (h segmentHeader) encode() []byte {
	w := binenc.NewWriter(binary.LittleEndian)
	w.WriteU16(h.version)
	w.WriteU32(h.recordCount)
	w.WriteU32(h.indexLen)
	w.WriteU32(h.valueBlockRawLen)
	w.WriteU32(h.valueBlockCompLen)
	return w.Bytes()
}

func decodeSegmentHeader(buf []byte) (segmentHeader, error) {
	if len(buf) != headerSize {
		return segmentHeader{}, ErrCorruptHeader
	}
	r := binenc.NewReader(bytes.NewReader(buf), binary.LittleEndian)

	var h segmentHeader
	var err error
	if h.version, err = r.ReadU16(); err != nil {
		return segmentHeader{}, ErrCorruptHeader
	}
	if h.recordCount, err = r.ReadU32(); err != nil {
		return segmentHeader{}, ErrCorruptHeader
	}
	if h.indexLen, err = r.ReadU32(); err != nil {
		return segmentHeader{}, ErrCorruptHeader
	}
	if h.valueBlockRawLen, err = r.ReadU32(); err != nil {
		return segmentHeader{}, ErrCorruptHeader
	}
	if h.valueBlockCompLen, err = r.ReadU32(); err != nil {
		return segmentHeader{}, ErrCorruptHeader
	}
	return h, nil
}

// indexEntry is one record's position within the decompressed value block.
type indexEntry struct {
	key       string
	valOffset uint32
	valLen    uint32
}

func encodeIndex(entries []indexEntry) []byte {
	w := binenc.NewWriter(binary.LittleEndian)
	for _, e := range entries {
		w.WriteString(e.key)
		w.WriteU32(e.valOffset)
		w.WriteU32(e.valLen)
	}
	return w.Bytes()
}

func decodeIndex(buf []byte, count uint32) ([]indexEntry, error) {
	r := binenc.NewReader(bytes.NewReader(buf), binary.LittleEndian)
	entries := make([]indexEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.ReadString()
		if err != nil {
			return nil, ErrCorruptHeader
		}
		off, err := r.ReadU32()
		if err != nil {
			return nil, ErrCorruptHeader
		}
		l, err := r.ReadU32()
		if err != nil {
			return nil, ErrCorruptHeader
		}
		entries = append(entries, indexEntry{key: key, valOffset: off, valLen: l})
	}
	return entries, nil
}
