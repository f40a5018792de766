package query

import "errors"

// ErrShapeMismatch is returned when the number of trees and the number of
// requested values disagree; rejected synchronously before any traversal.
var ErrShapeMismatch = errors.New("query: len(trees) != len(values)")

// ErrMissingTree is returned by SingleColumnQuery when the column-0 tree
// (the only tree it requires) is nil.
var ErrMissingTree = errors.New("query: column 0 has no tree")
