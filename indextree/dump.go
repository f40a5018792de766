package indextree

import (
	"fmt"
	"io"
	"log/slog"
)

// Dump writes a human-readable, recursively-indented description of every
// node in the tree (source/range first, then its children) to w. It exists
// for manual inspection and test-failure diagnostics, mirroring the
// reference implementation's Node::print.
func (t *Tree) Dump(w io.Writer) {
	dumpNode(w, t.root, 0)
}

func dumpNode(w io.Writer, n *Node, depth int) {
	if n == nil {
		return
	}
	label := n.source
	if label == "" {
		label = "interior"
	}
	fmt.Fprintf(w, "%*s%s [%s,%s]\n", depth*2, "", label, n.startKey, n.endKey)
	for _, c := range n.children {
		dumpNode(w, c, depth+1)
	}
}

// LogSummary emits one slog line per node via slog.Info, for callers that
// want the same shape as Dump routed through structured logging instead of
// an io.Writer.
func (t *Tree) LogSummary(logger *slog.Logger) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		label := n.source
		if label == "" {
			label = "interior"
		}
		logger.Info("index node", "source", label, "start", n.startKey, "end", n.endKey, "leaf", n.IsLeaf())
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
}
