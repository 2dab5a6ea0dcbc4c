package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/confaudit/confaudit/pkg/audit"
)

// auditCollector implements prometheus.Collector, reading the server's run
// state on each scrape.
type auditCollector struct {
	srv *Server

	runsTotal       *prometheus.Desc
	findingsTotal   *prometheus.Desc
	lastSections    *prometheus.Desc
	lastFindings    *prometheus.Desc
	lastCompliance  *prometheus.Desc
	lastRunDuration *prometheus.Desc
	uptimeSeconds   *prometheus.Desc
}

func newCollector(srv *Server) *auditCollector {
	return &auditCollector{
		srv: srv,

		runsTotal: prometheus.NewDesc(
			"confaudit_runs_total",
			"Total audit runs completed.",
			nil, nil,
		),
		findingsTotal: prometheus.NewDesc(
			"confaudit_findings_total",
			"Total findings across all runs.",
			nil, nil,
		),
		lastSections: prometheus.NewDesc(
			"confaudit_last_run_sections",
			"Sections in the last run by status.",
			[]string{"status"}, nil,
		),
		lastFindings: prometheus.NewDesc(
			"confaudit_last_run_findings",
			"Findings in the last run by kind.",
			[]string{"kind"}, nil,
		),
		lastCompliance: prometheus.NewDesc(
			"confaudit_last_compliance_score",
			"Compliance score of the last run (percent).",
			nil, nil,
		),
		lastRunDuration: prometheus.NewDesc(
			"confaudit_last_run_duration_seconds",
			"Duration of the last audit run in seconds.",
			nil, nil,
		),
		uptimeSeconds: prometheus.NewDesc(
			"confaudit_uptime_seconds",
			"Service uptime in seconds.",
			nil, nil,
		),
	}
}

func (c *auditCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runsTotal
	ch <- c.findingsTotal
	ch <- c.lastSections
	ch <- c.lastFindings
	ch <- c.lastCompliance
	ch <- c.lastRunDuration
	ch <- c.uptimeSeconds
}

func (c *auditCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.srv
	s.mu.RLock()
	runs := s.runsTotal
	findings := s.findingsTotal
	last := s.lastRun
	s.mu.RUnlock()

	ch <- prometheus.MustNewConstMetric(c.runsTotal, prometheus.CounterValue,
		float64(runs))
	ch <- prometheus.MustNewConstMetric(c.findingsTotal, prometheus.CounterValue,
		float64(findings))
	ch <- prometheus.MustNewConstMetric(c.uptimeSeconds, prometheus.GaugeValue,
		time.Since(s.startTime).Seconds())

	if last == nil {
		return
	}

	for _, status := range []audit.Status{audit.StatusOK, audit.StatusToCheck, audit.StatusError} {
		ch <- prometheus.MustNewConstMetric(c.lastSections, prometheus.GaugeValue,
			float64(last.statuses[status]), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.lastFindings, prometheus.GaugeValue,
		float64(last.stats.Missing), "missing")
	ch <- prometheus.MustNewConstMetric(c.lastFindings, prometheus.GaugeValue,
		float64(last.stats.Extra), "additional")
	ch <- prometheus.MustNewConstMetric(c.lastCompliance, prometheus.GaugeValue,
		float64(last.stats.Compliance))
	ch <- prometheus.MustNewConstMetric(c.lastRunDuration, prometheus.GaugeValue,
		last.duration.Seconds())
}
