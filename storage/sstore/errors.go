package sstore

import "errors"

var (
	// ErrReadSizeMismatch is returned when a ReadAt call returns fewer
	// bytes than requested without an error of its own.
	ErrReadSizeMismatch = errors.New("sstore: read size mismatch")

	// ErrWriteSizeMismatch is returned when a WriteAt call writes fewer
	// bytes than requested without an error of its own.
	ErrWriteSizeMismatch = errors.New("sstore: write size mismatch")

	// ErrCorruptHeader is returned when a segment file's header can't be
	// decoded, or declares a record count that disagrees with its index.
	ErrCorruptHeader = errors.New("sstore: corrupt segment header")

	// ErrUnsortedRecords is returned by the writer when the caller hands
	// it records that are not already in ascending key order; the store
	// never sorts on a caller's behalf.
	ErrUnsortedRecords = errors.New("sstore: records must be in ascending key order")
)
