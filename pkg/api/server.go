package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/confaudit/confaudit/pkg/audit"
	"github.com/confaudit/confaudit/pkg/logging"
	"github.com/confaudit/confaudit/pkg/report"
)

// Config configures the API server.
type Config struct {
	Addr     string
	Auth     *AuthConfig // nil = no authentication
	EventBuf *logging.EventBuffer
	MaxRuns  int // run history size (default 50)
}

// lastRunState is the snapshot of the most recent run, read by the metrics
// collector and the status handler.
type lastRunState struct {
	stats    report.Stats
	statuses map[audit.Status]int
	duration time.Duration
}

// Server is the HTTP audit service.
type Server struct {
	httpServer *http.Server
	eventBuf   *logging.EventBuffer
	history    *runHistory
	startTime  time.Time

	mu            sync.RWMutex
	runsTotal     uint64
	findingsTotal uint64
	lastRun       *lastRunState
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		eventBuf:  cfg.EventBuf,
		history:   newRunHistory(cfg.MaxRuns),
		startTime: time.Now(),
	}

	mux := http.NewServeMux()

	// Health + metrics
	mux.HandleFunc("GET /health", s.healthHandler)

	// Prometheus metrics with isolated registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// REST API v1
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("POST /api/v1/audit", s.auditHandler)
	mux.HandleFunc("GET /api/v1/runs", s.runsHandler)
	mux.HandleFunc("GET /api/v1/events", s.eventsHandler)

	// SSE streaming
	mux.HandleFunc("GET /api/v1/findings/stream", s.findingsStreamHandler)

	var handler http.Handler = mux
	if cfg.Auth != nil {
		handler = authMiddleware(*cfg.Auth, mux)
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	return s
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP audit service listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// recordRun updates counters, history, and the metrics snapshot after a
// completed audit run.
func (s *Server) recordRun(res *audit.Result, stats report.Stats, duration time.Duration) {
	statuses := make(map[audit.Status]int)
	for _, sum := range res.Summaries() {
		statuses[sum.Status]++
	}

	s.mu.Lock()
	s.runsTotal++
	s.findingsTotal += uint64(stats.TotalIssues)
	s.lastRun = &lastRunState{stats: stats, statuses: statuses, duration: duration}
	s.mu.Unlock()

	s.history.Push(RunRecord{
		Time:       time.Now().Format(time.RFC3339),
		Hostname:   res.Hostname,
		Sections:   stats.Sections,
		Findings:   stats.TotalIssues,
		Compliance: stats.Compliance,
		Duration:   duration.Truncate(time.Microsecond).String(),
	})

	s.publishEvents(res, stats)
}

// publishEvents fans the run's findings out to the SSE event buffer.
func (s *Server) publishEvents(res *audit.Result, stats report.Stats) {
	if s.eventBuf == nil {
		return
	}
	now := time.Now()
	for _, sec := range res.Sections {
		for _, f := range sec.Missing {
			s.eventBuf.Add(logging.EventRecord{
				Time: now, Type: logging.EventFindingMissing,
				Hostname: res.Hostname, Section: sec.Section,
				Status: string(sec.Status), Message: f,
			})
		}
		for _, f := range sec.Extra {
			s.eventBuf.Add(logging.EventRecord{
				Time: now, Type: logging.EventFindingExtra,
				Hostname: res.Hostname, Section: sec.Section,
				Status: string(sec.Status), Message: f,
			})
		}
		s.eventBuf.Add(logging.EventRecord{
			Time: now, Type: logging.EventSectionDone,
			Hostname: res.Hostname, Section: sec.Section,
			Status:       string(sec.Status),
			MissingCount: sec.MissingCount, ExtraCount: sec.ExtraCount,
		})
	}
	s.eventBuf.Add(logging.EventRecord{
		Time: now, Type: logging.EventRunComplete,
		Hostname:     res.Hostname,
		MissingCount: stats.Missing, ExtraCount: stats.Extra,
		Compliance: stats.Compliance,
	})
}
