package binenc

import (
	"encoding/binary"
	"math"
)

// Writer appends fixed-width fields to a growable byte buffer in a given
// byte order. The zero value is not usable; construct with NewWriter.
type Writer struct {
	data  []byte
	order binary.ByteOrder
}

func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

func (w *Writer) grow(n int) []byte {
	start := len(w.data)
	w.data = append(w.data, make([]byte, n)...)
	return w.data[start : start+n]
}

func (w *Writer) WriteU8(v uint8) {
	w.data = append(w.data, v)
}

func (w *Writer) WriteU16(v uint16) {
	w.order.PutUint16(w.grow(2), v)
}

func (w *Writer) WriteU32(v uint32) {
	w.order.PutUint32(w.grow(4), v)
}

func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

func (w *Writer) WriteU64(v uint64) {
	w.order.PutUint64(w.grow(8), v)
}

func (w *Writer) WriteI64(v int64) {
	w.WriteU64(uint64(v))
}

func (w *Writer) WriteF64(v float64) {
	w.WriteU64(math.Float64bits(v))
}

func (w *Writer) WriteBytes(b []byte) {
	w.data = append(w.data, b...)
}

// WriteString appends a uint16-length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) {
	w.WriteU16(uint16(len(s)))
	w.WriteBytes([]byte(s))
}

func (w *Writer) Bytes() []byte {
	return w.data
}

func (w *Writer) Len() int {
	return len(w.data)
}
