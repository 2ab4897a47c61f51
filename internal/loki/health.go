package loki

import (
	"sync/atomic"
	"time"
)

// Health tracks ingestion outcomes for one client instance. It is owned by
// the Client (not a package-level global) so multiple clients in a process
// keep independent counters, and it is safe for concurrent updates from
// in-flight pushes.
type Health struct {
	entries     atomic.Int64
	errors      atomic.Int64
	lastSuccess atomic.Value // stores time.Time
}

// RecordSuccess increments the success counter and stamps the success time.
func (h *Health) RecordSuccess() {
	h.entries.Add(1)
	h.lastSuccess.Store(time.Now())
}

// RecordFailure increments the failure counter.
func (h *Health) RecordFailure() {
	h.errors.Add(1)
}

// HealthSnapshot is a point-in-time copy of the counters. Each field is
// individually consistent; no cross-field atomicity is guaranteed.
type HealthSnapshot struct {
	EntriesTotal int64     `json:"entries_total"`
	ErrorsTotal  int64     `json:"errors_total"`
	LastSuccess  time.Time `json:"last_success,omitzero"`
}

// Snapshot returns the current counter values for external polling.
func (h *Health) Snapshot() HealthSnapshot {
	s := HealthSnapshot{
		EntriesTotal: h.entries.Load(),
		ErrorsTotal:  h.errors.Load(),
	}
	if last := h.lastSuccess.Load(); last != nil {
		if t, ok := last.(time.Time); ok {
			s.LastSuccess = t
		}
	}
	return s
}
