// Package compression wraps the lz4 block codec used to compress sstore
// value blocks. The bloom sidecar format never goes through here: it must
// stay byte-exact, so only record payloads are compressed.
package compression

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	if _, err := zw.Write(src); err != nil {
		return err
	}
	if err := zw.Flush(); err != nil {
		return err
	}

	return zw.Close()
}

// DecompressLz4 inflates an lz4 stream produced by CompressLz4 and returns
// the decompressed bytes in a newly allocated slice.
func DecompressLz4(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	return io.ReadAll(zr)
}
