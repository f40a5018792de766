package bloomfilter

import "errors"

// ErrSizeMismatch is returned by Merge when the two filters were built with
// different bit-array sizes. It is the one error in this package that is
// fatal to a build: a size mismatch indicates a construction-time
// programming error, not a runtime condition the caller can route around.
var ErrSizeMismatch = errors.New("bloomfilter: size mismatch on merge")

// ErrPayloadMismatch is returned by Load when a sidecar's declared bit
// count disagrees with the number of payload bytes actually present.
var ErrPayloadMismatch = errors.New("bloomfilter: payload length disagrees with header")
