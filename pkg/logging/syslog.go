package logging

import (
	"fmt"
	"net"
	"os"
	"time"
)

// Syslog severity levels (RFC 3164).
const (
	SyslogError   = 3
	SyslogWarning = 4
	SyslogInfo    = 6
)

// Syslog facility: local0 (16).
const syslogFacility = 16

// SyslogClient forwards audit events to a collector as RFC 3164 UDP
// messages. Findings are sent with structured device/section fields so
// collectors can filter on the audited device without parsing the finding
// text; missing findings go out at warning, everything else at info.
type SyslogClient struct {
	conn        net.Conn
	hostname    string
	tag         string
	MinSeverity int // 0 = no filter, else SyslogError(3)/SyslogWarning(4)/SyslogInfo(6)
}

// NewSyslogClient creates a new UDP syslog client connected to host:port.
func NewSyslogClient(host string, port int) (*SyslogClient, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial syslog %s: %w", addr, err)
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "confaudit"
	}
	return &SyslogClient{
		conn:     conn,
		hostname: hostname,
		tag:      fmt.Sprintf("confaudit[%d]", os.Getpid()),
	}, nil
}

// SendEvent forwards one audit event in structured key=value form, at the
// severity its type maps to. Events below the severity filter are dropped.
func (s *SyslogClient) SendEvent(rec *EventRecord) error {
	severity := EventSeverity(rec.Type)
	if !s.ShouldSend(severity) {
		return nil
	}
	return s.Send(severity, rec.Type+" "+formatEvent(rec))
}

// Send sends a raw syslog message with the given severity. The slog tee
// handler uses this path for ordinary log records.
func (s *SyslogClient) Send(severity int, msg string) error {
	priority := syslogFacility*8 + severity
	ts := time.Now().Format(time.Stamp) // "Jan _2 15:04:05"
	line := fmt.Sprintf("<%d>%s %s %s: %s", priority, ts, s.hostname, s.tag, msg)
	_, err := s.conn.Write([]byte(line))
	return err
}

// ShouldSend returns true if the event severity passes this client's filter.
// Lower severity number = higher priority (error=3 < warning=4 < info=6).
func (s *SyslogClient) ShouldSend(severity int) bool {
	return s.MinSeverity == 0 || severity <= s.MinSeverity
}

// ParseSeverity converts a severity name to its numeric value.
// Returns 0 (no filter) for unrecognized names.
func ParseSeverity(name string) int {
	switch name {
	case "error":
		return SyslogError
	case "warning":
		return SyslogWarning
	case "info":
		return SyslogInfo
	default:
		return 0
	}
}

// Close closes the underlying connection.
func (s *SyslogClient) Close() error {
	return s.conn.Close()
}
