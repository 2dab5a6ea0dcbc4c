// Package api implements the HTTP audit service: the REST API, the SSE
// findings stream, and the Prometheus metrics endpoint.
package api

import "encoding/json"

// Response is the standard JSON response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse holds service status information.
type StatusResponse struct {
	Uptime        string     `json:"uptime"`
	RunsTotal     uint64     `json:"runs_total"`
	FindingsTotal uint64     `json:"findings_total"`
	LastRun       *RunRecord `json:"last_run,omitempty"`
}

// AuditRequest is the body of POST /api/v1/audit: a captured output
// document (the {"data": ...} form) plus the whitelist text.
type AuditRequest struct {
	Output    json.RawMessage `json:"output"`
	Whitelist string          `json:"whitelist"`
}

// SummaryEntry is one per-section status row.
type SummaryEntry struct {
	Section      string `json:"section"`
	Hostname     string `json:"hostname"`
	Status       string `json:"status"`
	MissingCount int    `json:"missing_count"`
	ExtraCount   int    `json:"additional_count"`
}

// AuditResponse is the data payload of a completed audit run.
type AuditResponse struct {
	Hostname  string         `json:"hostname"`
	Summaries []SummaryEntry `json:"summaries"`
	Findings  []string       `json:"findings"`
	Stats     StatsEntry     `json:"stats"`
}

// StatsEntry holds the aggregate figures of one run.
type StatsEntry struct {
	Sections    int `json:"sections_checked"`
	TotalIssues int `json:"total_issues"`
	Missing     int `json:"missing_configurations"`
	Extra       int `json:"additional_configurations"`
	Compliance  int `json:"compliance_score"`
}

// RunRecord is one entry of the in-memory run history.
type RunRecord struct {
	Time       string `json:"time"`
	Hostname   string `json:"hostname"`
	Sections   int    `json:"sections"`
	Findings   int    `json:"findings"`
	Compliance int    `json:"compliance_score"`
	Duration   string `json:"duration"`
}

// FindingStreamEntry is one event on the findings stream or replay list.
type FindingStreamEntry struct {
	ID       uint64 `json:"id"`
	Time     string `json:"time"`
	Type     string `json:"type"`
	Hostname string `json:"hostname"`
	Section  string `json:"section,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}
