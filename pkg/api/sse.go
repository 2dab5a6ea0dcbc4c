package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/confaudit/confaudit/pkg/logging"
)

// setSSEHeaders configures the response for Server-Sent Events streaming.
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeSSEEvent writes a single SSE event to the response.
func writeSSEEvent(w http.ResponseWriter, id string, event string, data string) {
	fmt.Fprintf(w, "id: %s\n", id)
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// findingsStreamHandler streams audit events via SSE.
// Supports ?section=, ?type= and ?status= substring filters.
func (s *Server) findingsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if s.eventBuf == nil {
		writeError(w, http.StatusServiceUnavailable, "event buffer not available")
		return
	}

	q := r.URL.Query()
	filter := logging.EventFilter{
		Section: q.Get("section"),
		Type:    q.Get("type"),
		Status:  q.Get("status"),
	}

	setSSEHeaders(w)

	sub := s.eventBuf.Subscribe(128)
	defer sub.Close()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-sub.C:
			if !filter.IsEmpty() && !filter.Matches(&rec) {
				continue
			}
			data, err := json.Marshal(streamEntryFromRecord(rec))
			if err != nil {
				continue
			}
			writeSSEEvent(w, fmt.Sprintf("%d", rec.Seq), rec.Type, string(data))
		}
	}
}

func streamEntryFromRecord(rec logging.EventRecord) FindingStreamEntry {
	return FindingStreamEntry{
		ID:       rec.Seq,
		Time:     rec.Time.Format(time.RFC3339),
		Type:     rec.Type,
		Hostname: rec.Hostname,
		Section:  rec.Section,
		Status:   rec.Status,
		Message:  rec.Message,
	}
}
