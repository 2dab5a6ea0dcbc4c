package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FindingsLog writes audit findings to a local file with size rotation.
// It is the persistent audit trail a one-shot run can optionally keep.
type FindingsLog struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxSize  int64
	maxFiles int
	written  int64

	MinSeverity int
}

// FindingsLogConfig configures a FindingsLog.
type FindingsLogConfig struct {
	Path     string // log file path (default: /var/log/confaudit/findings.log)
	MaxSize  int64  // max file size in bytes (default: 10MB)
	MaxFiles int    // number of rotated files to keep (default: 5)
}

// NewFindingsLog creates a rotating findings log writer.
func NewFindingsLog(cfg FindingsLogConfig) (*FindingsLog, error) {
	path := cfg.Path
	if path == "" {
		path = "/var/log/confaudit/findings.log"
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // 10MB
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 5
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fl := &FindingsLog{
		file:     f,
		path:     path,
		maxSize:  maxSize,
		maxFiles: maxFiles,
	}
	if info, err := f.Stat(); err == nil {
		fl.written = info.Size()
	}
	return fl, nil
}

// SendEvent appends one audit event to the trail in structured key=value
// form, at the severity its type maps to. Events below the severity filter
// are dropped.
func (fl *FindingsLog) SendEvent(rec *EventRecord) error {
	severity := EventSeverity(rec.Type)
	if !fl.ShouldSend(severity) {
		return nil
	}
	return fl.Send(severity, rec.Type+" "+formatEvent(rec))
}

// Send writes one finding line. It matches the SyslogClient.Send signature
// so findings can fan out to either sink.
func (fl *FindingsLog) Send(severity int, msg string) error {
	ts := time.Now().Format("2006-01-02T15:04:05.000")
	line := fmt.Sprintf("%s [%s] %s\n", ts, severityTag(severity), msg)

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return fmt.Errorf("log file closed")
	}

	n, err := fl.file.WriteString(line)
	if err != nil {
		return err
	}
	fl.written += int64(n)

	if fl.written >= fl.maxSize {
		fl.rotate()
	}
	return nil
}

// ShouldSend returns true if the severity passes this log's filter.
func (fl *FindingsLog) ShouldSend(severity int) bool {
	return fl.MinSeverity == 0 || severity <= fl.MinSeverity
}

// Close closes the log file.
func (fl *FindingsLog) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.file != nil {
		err := fl.file.Close()
		fl.file = nil
		return err
	}
	return nil
}

func (fl *FindingsLog) rotate() {
	fl.file.Close()
	fl.file = nil

	for i := fl.maxFiles - 1; i > 0; i-- {
		old := fmt.Sprintf("%s.%d", fl.path, i)
		next := fmt.Sprintf("%s.%d", fl.path, i+1)
		os.Rename(old, next)
	}
	os.Rename(fl.path, fl.path+".1")
	os.Remove(fmt.Sprintf("%s.%d", fl.path, fl.maxFiles+1))

	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		slog.Warn("failed to open rotated findings log file", "err", err)
		return
	}
	fl.file = f
	fl.written = 0
}

func severityTag(severity int) string {
	switch severity {
	case SyslogError:
		return "ERROR"
	case SyslogWarning:
		return "WARNING"
	case SyslogInfo:
		return "INFO"
	default:
		return "INFO"
	}
}
