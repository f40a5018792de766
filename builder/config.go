package builder

// Config carries the per-tree build parameters: leaf partition size and
// bloom filter geometry shared by every leaf and interior node, plus the
// composition fan-out. Mirrors the teacher's by-value *Config structs
// (ManagerConfig, QueryOptions) rather than functional options.
type Config struct {
	// N is the target number of records per leaf partition.
	N int
	// M is the bit-array length shared by every filter in the tree.
	M uint64
	// K is the hash-function count shared by every filter in the tree.
	K int32
	// Fanout bounds the child count of every interior node.
	Fanout int

	// SortLeaves orders leaves by startKey before composition, producing
	// non-overlapping interior ranges at the cost of the file-completion
	// ordering signal. Off by default, matching the reference.
	SortLeaves bool

	// SidecarDir, if non-empty, is where leaf filter sidecars are written
	// after composition. Empty disables sidecar persistence.
	SidecarDir string
}

// DefaultConfig returns the configuration values documented in the
// external interfaces: N≈100k, m in [1M,8M] (defaulted to 1M), k in [3,6]
// (defaulted to 3), r≈3.
func DefaultConfig() Config {
	return Config{
		N:      100_000,
		M:      1 << 20,
		K:      3,
		Fanout: 3,
	}
}
