package bloomfilter

import (
	"encoding/binary"
	"fmt"
	"os"

	"bloomtree/encoding/binenc"
)

// Save writes the sidecar binary format: m (8 bytes, LE, unsigned), k (4
// bytes, LE, signed), then ceil(m/8) bytes of bit payload with bit i stored
// in byte i/8 at bit position i%8 (least significant bit first).
func (f *Filter) Save(path string) error {
	w := binenc.NewWriter(binary.LittleEndian)
	w.WriteU64(f.m)
	w.WriteI32(f.k)
	w.WriteBytes(packBits(f.words, int((f.m+7)/8)))

	if err := os.WriteFile(path, w.Bytes(), 0o644); err != nil {
		return fmt.Errorf("bloomfilter: unable to save %s: %s", path, err.Error())
	}
	return nil
}

// Load reverses Save. It rejects a file whose payload length disagrees with
// its header.
func Load(path string) (*Filter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bloomfilter: unable to load %s: %s", path, err.Error())
	}
	if len(raw) < 12 {
		return nil, ErrPayloadMismatch
	}

	m := binary.LittleEndian.Uint64(raw[0:8])
	k := int32(binary.LittleEndian.Uint32(raw[8:12]))

	payload := raw[12:]
	wantLen := int((m + 7) / 8)
	if len(payload) != wantLen {
		return nil, ErrPayloadMismatch
	}

	return &Filter{
		m:     m,
		k:     k,
		words: unpackBits(payload, wordCount(m)),
	}, nil
}
