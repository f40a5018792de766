package query

import "sync/atomic"

// Metrics counts bloom filter consultations and dispatched file scans for
// a single call to MultiColumnQuery or SingleColumnQuery. Each call
// constructs its own Metrics and returns it to the caller rather than
// touching a process-global counter, so concurrent queries never interfere
// (see the design notes on per-query metrics).
type Metrics struct {
	FilterChecks     atomic.Int64 // every filter consultation, leaf or interior
	LeafFilterChecks atomic.Int64 // the subset of consultations made on leaves
	FileScans        atomic.Int64 // file scans dispatched
}

// NewMetrics returns a zeroed Metrics ready for one query.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordCheck(leaf bool) {
	if m == nil {
		return
	}
	m.FilterChecks.Add(1)
	if leaf {
		m.LeafFilterChecks.Add(1)
	}
}

func (m *Metrics) recordScans(n int) {
	if m == nil {
		return
	}
	m.FileScans.Add(int64(n))
}
