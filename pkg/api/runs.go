package api

import "sync"

// runHistory is a bounded ring of recent run records, newest kept last.
type runHistory struct {
	mu      sync.RWMutex
	entries []RunRecord
	maxSize int
}

func newRunHistory(maxSize int) *runHistory {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &runHistory{maxSize: maxSize}
}

// Push adds a run record, dropping the oldest once the ring is full.
func (h *runHistory) Push(rec RunRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, rec)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[1:]
	}
}

// List returns all records, most recent first.
func (h *runHistory) List() []RunRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]RunRecord, len(h.entries))
	for i, rec := range h.entries {
		result[len(h.entries)-1-i] = rec
	}
	return result
}

// Last returns the most recent record.
func (h *runHistory) Last() (RunRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return RunRecord{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len returns the number of records.
func (h *runHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
