package builder

import "errors"

// ErrNoFiles is returned by Build when the storage adapter reports zero
// files for the requested column; there is nothing to partition.
var ErrNoFiles = errors.New("builder: column has no source files")
