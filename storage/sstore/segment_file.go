package sstore

import (
	"errors"
	"os"
)

// segmentFile is the offset-addressed file handle behind a sorted segment:
// a fixed-width header, an index section, and a compressed value block, all
// read and written via ReadAt/WriteAt rather than a sequential stream, the
// same access pattern the teacher's block package uses for its disk slabs.
type segmentFile struct {
	path   string
	file   *os.File
	opened bool
}

func newSegmentFile(path string) *segmentFile {
	return &segmentFile{path: path}
}

func (f *segmentFile) Open(readOnly bool) (topErr error) {
	var perm os.FileMode = 0o644

	if readOnly {
		f.file, topErr = os.OpenFile(f.path, os.O_RDONLY, perm)
	} else {
		f.file, topErr = os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY, perm)
	}

	if topErr == nil {
		f.opened = true
	}
	return topErr
}

func (f *segmentFile) Close() error {
	if !f.opened {
		return nil
	}
	return f.file.Close()
}

func (f *segmentFile) ReadAt(out []byte, off int64) error {
	if !f.opened {
		return errors.New("sstore: segment file not opened")
	}

	n, err := f.file.ReadAt(out, off)
	if err != nil {
		return err
	}
	if n != len(out) {
		return ErrReadSizeMismatch
	}
	return nil
}

func (f *segmentFile) WriteAt(in []byte, off int64) error {
	if !f.opened {
		return errors.New("sstore: segment file not opened")
	}

	n, err := f.file.WriteAt(in, off)
	if err != nil {
		return err
	}
	if n != len(in) {
		return ErrWriteSizeMismatch
	}
	return nil
}
