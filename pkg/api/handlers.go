package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/confaudit/confaudit/pkg/audit"
	"github.com/confaudit/confaudit/pkg/capture"
	"github.com/confaudit/confaudit/pkg/logging"
	"github.com/confaudit/confaudit/pkg/report"
	"github.com/confaudit/confaudit/pkg/whitelist"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := StatusResponse{
		Uptime:        time.Since(s.startTime).Truncate(time.Second).String(),
		RunsTotal:     s.runsTotal,
		FindingsTotal: s.findingsTotal,
	}
	s.mu.RUnlock()

	if last, ok := s.history.Last(); ok {
		resp.LastRun = &last
	}
	writeOK(w, resp)
}

func (s *Server) runsHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, s.history.List())
}

// eventsHandler replays recent events from the buffer, newest first. It
// accepts the same ?section/type/status filters as the SSE stream, plus
// ?limit.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if s.eventBuf == nil {
		writeOK(w, []FindingStreamEntry{})
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit > 10000 {
		limit = 10000
	}

	q := r.URL.Query()
	filter := logging.EventFilter{
		Section: q.Get("section"),
		Type:    q.Get("type"),
		Status:  q.Get("status"),
	}

	var events []logging.EventRecord
	if filter.IsEmpty() {
		events = s.eventBuf.Latest(limit)
	} else {
		events = s.eventBuf.LatestFiltered(limit, filter)
	}

	result := make([]FindingStreamEntry, len(events))
	for i, ev := range events {
		result[i] = streamEntryFromRecord(ev)
	}
	writeOK(w, result)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// auditHandler runs one complete audit over the documents in the request
// body. Undecodable input is an input-load failure: HTTP 400, no report.
func (s *Server) auditHandler(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
		return
	}
	if len(req.Output) == 0 {
		writeError(w, http.StatusBadRequest, "missing output document")
		return
	}
	out, err := capture.Decode(req.Output)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wl := whitelist.Decode([]byte(req.Whitelist))
	if wl.Len() == 0 {
		writeError(w, http.StatusBadRequest, "whitelist has no sections")
		return
	}

	start := time.Now()
	res := audit.New().Run(out, wl)
	stats := report.BuildStats(res)
	s.recordRun(res, stats, time.Since(start))

	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="config_comparison.xlsx"`)
		report.Write(w, res)
		return
	}

	writeOK(w, auditResponse(res, stats))
}

func auditResponse(res *audit.Result, stats report.Stats) AuditResponse {
	summaries := make([]SummaryEntry, 0, len(res.Sections))
	for _, sum := range res.Summaries() {
		summaries = append(summaries, SummaryEntry{
			Section:      sum.Section,
			Hostname:     sum.Hostname,
			Status:       string(sum.Status),
			MissingCount: sum.MissingCount,
			ExtraCount:   sum.ExtraCount,
		})
	}
	return AuditResponse{
		Hostname:  res.Hostname,
		Summaries: summaries,
		Findings:  res.Findings(),
		Stats: StatsEntry{
			Sections:    stats.Sections,
			TotalIssues: stats.TotalIssues,
			Missing:     stats.Missing,
			Extra:       stats.Extra,
			Compliance:  stats.Compliance,
		},
	}
}
