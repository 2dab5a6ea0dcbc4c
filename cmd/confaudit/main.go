// confaudit audits a captured network-device output document against a
// policy whitelist and writes an XLSX compliance report.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/confaudit/confaudit/pkg/audit"
	"github.com/confaudit/confaudit/pkg/capture"
	"github.com/confaudit/confaudit/pkg/logging"
	"github.com/confaudit/confaudit/pkg/report"
	"github.com/confaudit/confaudit/pkg/shell"
	"github.com/confaudit/confaudit/pkg/whitelist"
)

func main() {
	outputFile := flag.String("output", "", "captured device output document (JSON)")
	whitelistFile := flag.String("whitelist", "", "policy whitelist file")
	reportFile := flag.String("report", "config_comparison.xlsx", "XLSX report path (empty to skip)")
	showDiff := flag.Bool("show-diff", false, "print per-section unified diffs")
	interactive := flag.Bool("interactive", false, "browse the result in an interactive shell")
	syslogAddr := flag.String("syslog", "", "forward findings to a syslog collector (host:port)")
	auditLog := flag.String("audit-log", "", "append findings to a local rotating log file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *outputFile == "" || *whitelistFile == "" {
		fmt.Fprintln(os.Stderr, "confaudit: -output and -whitelist are required")
		flag.Usage()
		os.Exit(2)
	}

	// Set up structured logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	var syslogClient *logging.SyslogClient
	if *syslogAddr != "" {
		client, err := dialSyslog(*syslogAddr)
		if err != nil {
			fatalf("confaudit: %v", err)
		}
		defer client.Close()
		syslogClient = client
		handler = logging.NewSyslogSlogHandler(handler, client)
	}
	slog.SetDefault(slog.New(handler))

	var findingsLog *logging.FindingsLog
	if *auditLog != "" {
		fl, err := logging.NewFindingsLog(logging.FindingsLogConfig{Path: *auditLog})
		if err != nil {
			fatalf("confaudit: %v", err)
		}
		defer fl.Close()
		findingsLog = fl
	}

	out, err := capture.Load(*outputFile)
	if err != nil {
		fatalf("confaudit: %v", err)
	}
	wl, err := whitelist.Load(*whitelistFile)
	if err != nil {
		fatalf("confaudit: %v", err)
	}
	if wl.Len() == 0 {
		fatalf("confaudit: whitelist %s has no sections", *whitelistFile)
	}

	res := audit.New().Run(out, wl)

	var sinks []logging.EventSink
	if syslogClient != nil {
		sinks = append(sinks, syslogClient)
	}
	if findingsLog != nil {
		sinks = append(sinks, findingsLog)
	}
	forwardFindings(res, sinks...)

	if *reportFile != "" {
		if err := report.WriteFile(*reportFile, res); err != nil {
			fatalf("confaudit: %v", err)
		}
		slog.Info("report written", "path", *reportFile)
	}

	fmt.Println()
	report.RenderSummary(os.Stdout, res)

	if *showDiff {
		for i := range res.Sections {
			sr := &res.Sections[i]
			if sr.MissingCount == 0 && sr.ExtraCount == 0 {
				continue
			}
			if diff := report.SectionDiff(sr); diff != "" {
				fmt.Println()
				fmt.Print(diff)
			}
		}
	}

	if *interactive {
		if err := shell.New(res).Run(); err != nil {
			fatalf("confaudit: %v", err)
		}
	}
}

// forwardFindings fans the run's findings out to the configured sinks as
// audit events; each sink derives the severity from the event type.
func forwardFindings(res *audit.Result, sinks ...logging.EventSink) {
	if len(sinks) == 0 {
		return
	}

	now := time.Now()
	emit := func(eventType, section string, findings []string) {
		for _, f := range findings {
			rec := logging.EventRecord{
				Time:     now,
				Type:     eventType,
				Hostname: res.Hostname,
				Section:  section,
				Message:  f,
			}
			for _, sink := range sinks {
				if err := sink.SendEvent(&rec); err != nil {
					slog.Warn("forward finding", "err", err)
				}
			}
		}
	}
	for _, sec := range res.Sections {
		emit(logging.EventFindingMissing, sec.Section, sec.Missing)
		emit(logging.EventFindingExtra, sec.Section, sec.Extra)
	}
}

func dialSyslog(addr string) (*logging.SyslogClient, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// Bare hostname: default syslog port
		host, portStr = addr, "514"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("syslog address %s: bad port %q", addr, portStr)
	}
	return logging.NewSyslogClient(host, port)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
