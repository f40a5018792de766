// Package binenc provides small, allocation-light little/big-endian binary
// readers and writers used for the bloom filter sidecar format and the
// sorted-segment file format.
package binenc

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var (
	ErrReadMismatch = errors.New("binenc: read size mismatch")
)

const maxScratch = 16

// Reader decodes fixed-width fields from an io.Reader in a given byte order.
type Reader struct {
	scratch [maxScratch]byte

	src   io.Reader
	order binary.ByteOrder
}

func NewReader(src io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{src: src, order: order}
}

func (r *Reader) fill(size int) error {
	n, err := io.ReadFull(r.src, r.scratch[:size])
	if err != nil {
		return err
	}
	if n != size {
		return ErrReadMismatch
	}
	return nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.fill(1); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.fill(2); err != nil {
		return 0, err
	}
	return r.order.Uint16(r.scratch[:2]), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.fill(4); err != nil {
		return 0, err
	}
	return r.order.Uint32(r.scratch[:4]), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.fill(8); err != nil {
		return 0, err
	}
	return r.order.Uint64(r.scratch[:8]), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBytes reads exactly n bytes into a freshly allocated slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	read, err := io.ReadFull(r.src, out)
	if err != nil {
		return nil, err
	}
	if read != n {
		return nil, ErrReadMismatch
	}
	return out, nil
}

// ReadString reads a uint16-length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
