package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Audit event types stored in the event buffer.
const (
	EventFindingMissing = "FINDING_MISSING"
	EventFindingExtra   = "FINDING_EXTRA"
	EventSectionDone    = "SECTION_DONE"
	EventRunComplete    = "RUN_COMPLETE"
)

// EventRecord is one audit event: a finding, a finished section, or a
// completed run.
type EventRecord struct {
	Seq          uint64 // buffer-wide sequence number, assigned by Add
	Time         time.Time
	Type         string // FINDING_MISSING, FINDING_EXTRA, SECTION_DONE, RUN_COMPLETE
	Hostname     string
	Section      string
	Status       string // section/run status: OK, to_check, error
	Message      string // finding text or summary line
	MissingCount int    // for SECTION_DONE / RUN_COMPLETE
	ExtraCount   int
	Compliance   int // for RUN_COMPLETE
}

// EventBuffer is a thread-safe circular buffer for recent audit events.
type EventBuffer struct {
	mu    sync.RWMutex
	buf   []EventRecord
	size  int
	head  int    // next write position
	count int    // number of events stored
	seq   uint64 // monotonically increasing, stamped onto records by Add

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

// Subscription receives new events from an EventBuffer.
type Subscription struct {
	C  chan EventRecord
	eb *EventBuffer
}

// Close unsubscribes and closes the channel.
func (s *Subscription) Close() {
	s.eb.unsubscribe(s)
}

// NewEventBuffer creates a new event buffer with the given capacity.
func NewEventBuffer(size int) *EventBuffer {
	return &EventBuffer{
		buf:  make([]EventRecord, size),
		size: size,
		subs: make(map[*Subscription]struct{}),
	}
}

// Add appends an event to the buffer, overwriting the oldest if full, and
// stamps it with the next sequence number. Subscribers are notified
// non-blocking.
func (eb *EventBuffer) Add(rec EventRecord) {
	eb.mu.Lock()
	eb.seq++
	rec.Seq = eb.seq
	eb.buf[eb.head] = rec
	eb.head = (eb.head + 1) % eb.size
	if eb.count < eb.size {
		eb.count++
	}
	eb.mu.Unlock()

	eb.subMu.RLock()
	for sub := range eb.subs {
		select {
		case sub.C <- rec:
		default: // drop if subscriber is slow
		}
	}
	eb.subMu.RUnlock()
}

// Subscribe returns a Subscription that receives new events.
// Call Close() on the subscription when done.
func (eb *EventBuffer) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{
		C:  make(chan EventRecord, bufSize),
		eb: eb,
	}
	eb.subMu.Lock()
	eb.subs[sub] = struct{}{}
	eb.subMu.Unlock()
	return sub
}

func (eb *EventBuffer) unsubscribe(sub *Subscription) {
	eb.subMu.Lock()
	delete(eb.subs, sub)
	eb.subMu.Unlock()
}

// EventFilter specifies criteria for filtering events.
type EventFilter struct {
	Section string // case-insensitive substring match on Section
	Type    string // case-insensitive substring match on Type
	Status  string // case-insensitive substring match on Status
}

// IsEmpty returns true if no filter criteria are set.
func (f EventFilter) IsEmpty() bool {
	return f.Section == "" && f.Type == "" && f.Status == ""
}

// Matches reports whether a record passes the filter.
func (f EventFilter) Matches(rec *EventRecord) bool {
	if f.Section != "" && !strings.Contains(strings.ToLower(rec.Section), strings.ToLower(f.Section)) {
		return false
	}
	if f.Type != "" && !strings.Contains(strings.ToLower(rec.Type), strings.ToLower(f.Type)) {
		return false
	}
	if f.Status != "" && !strings.Contains(strings.ToLower(rec.Status), strings.ToLower(f.Status)) {
		return false
	}
	return true
}

// LatestFiltered returns the most recent n events matching the filter, newest first.
func (eb *EventBuffer) LatestFiltered(n int, f EventFilter) []EventRecord {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	var result []EventRecord
	for i := 0; i < eb.count && len(result) < n; i++ {
		idx := (eb.head - 1 - i + eb.size) % eb.size
		if f.Matches(&eb.buf[idx]) {
			result = append(result, eb.buf[idx])
		}
	}
	return result
}

// Latest returns the most recent n events, newest first.
func (eb *EventBuffer) Latest(n int) []EventRecord {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n > eb.count {
		n = eb.count
	}
	if n == 0 {
		return nil
	}

	result := make([]EventRecord, n)
	for i := 0; i < n; i++ {
		// Walk backwards from the most recent entry
		idx := (eb.head - 1 - i + eb.size) % eb.size
		result[i] = eb.buf[idx]
	}
	return result
}

// EventSeverity maps an audit event type to a syslog severity: missing
// findings are warnings, everything else informational.
func EventSeverity(eventType string) int {
	if eventType == EventFindingMissing {
		return SyslogWarning
	}
	return SyslogInfo
}

// EventSink forwards or persists audit events (SyslogClient, FindingsLog).
type EventSink interface {
	SendEvent(rec *EventRecord) error
}

// formatEvent renders an event as key=value text for the sinks: findings
// carry the device and section, section and run events carry their counters.
func formatEvent(rec *EventRecord) string {
	switch rec.Type {
	case EventFindingMissing, EventFindingExtra:
		return fmt.Sprintf("device=%s section=%s %s", rec.Hostname, rec.Section, rec.Message)
	case EventSectionDone:
		return fmt.Sprintf("device=%s section=%s status=%s missing=%d additional=%d",
			rec.Hostname, rec.Section, rec.Status, rec.MissingCount, rec.ExtraCount)
	case EventRunComplete:
		return fmt.Sprintf("device=%s missing=%d additional=%d compliance=%d%%",
			rec.Hostname, rec.MissingCount, rec.ExtraCount, rec.Compliance)
	default:
		return rec.Message
	}
}
