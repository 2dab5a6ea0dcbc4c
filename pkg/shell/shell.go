// Package shell implements the interactive browser for a completed audit
// run: per-section status, findings, diffs, and workbook export.
package shell

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/confaudit/confaudit/pkg/audit"
	"github.com/confaudit/confaudit/pkg/report"
)

// Shell is the interactive result browser.
type Shell struct {
	rl     *readline.Instance
	result *audit.Result
	w      io.Writer
}

// New creates a shell over a completed run.
func New(result *audit.Result) *Shell {
	return &Shell{result: result, w: os.Stdout}
}

// Run starts the interactive loop.
func (s *Shell) Run() error {
	var err error
	s.rl, err = readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     "/tmp/confaudit_history",
		AutoComplete:    &completer{sh: s},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer s.rl.Close()

	fmt.Fprintf(s.w, "confaudit - compliance audit of %s\n", s.result.Hostname)
	fmt.Fprintln(s.w, "Type '?' for help")
	fmt.Fprintln(s.w)

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := s.dispatch(line); err != nil {
			if err == errExit {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

var errExit = fmt.Errorf("exit")

func (s *Shell) prompt() string {
	return s.result.Hostname + "> "
}

func (s *Shell) dispatch(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "show":
		return s.handleShow(parts[1:])

	case "diff":
		if len(parts) < 2 {
			return fmt.Errorf("diff: missing section name")
		}
		return s.showDiff(parts[1])

	case "export":
		if len(parts) < 2 {
			return fmt.Errorf("export: missing file path")
		}
		return s.export(parts[1])

	case "quit", "exit":
		return errExit

	case "?", "help":
		s.showHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (s *Shell) handleShow(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(s.w, "show: specify what to show")
		fmt.Fprintln(s.w, "  summary          Show the run summary")
		fmt.Fprintln(s.w, "  sections         List audited sections")
		fmt.Fprintln(s.w, "  section <name>   Show one section in detail")
		fmt.Fprintln(s.w, "  issues           Show all findings")
		fmt.Fprintln(s.w, "  stats            Show aggregate statistics")
		return nil
	}

	switch args[0] {
	case "summary":
		report.RenderSummary(s.w, s.result)
		return nil

	case "sections":
		for _, sum := range s.result.Summaries() {
			fmt.Fprintf(s.w, "  %-20s %s\n", sum.Section, sum.Status)
		}
		return nil

	case "section":
		if len(args) < 2 {
			return fmt.Errorf("show section: missing section name")
		}
		return s.showSection(args[1])

	case "issues":
		kind := ""
		if len(args) >= 2 {
			kind = args[1]
		}
		return s.showIssues(kind)

	case "stats":
		stats := report.BuildStats(s.result)
		fmt.Fprintf(s.w, "Device Hostname: %s\n", stats.Hostname)
		fmt.Fprintf(s.w, "Total Sections Checked: %d\n", stats.Sections)
		fmt.Fprintf(s.w, "Total Issues Found: %d\n", stats.TotalIssues)
		fmt.Fprintf(s.w, "Missing Configurations: %d\n", stats.Missing)
		fmt.Fprintf(s.w, "Additional Configurations: %d\n", stats.Extra)
		fmt.Fprintf(s.w, "Compliance Score: %d%%\n", stats.Compliance)
		return nil

	default:
		return fmt.Errorf("unknown show target: %s", args[0])
	}
}

func (s *Shell) showSection(name string) error {
	sr, ok := s.result.Section(name)
	if !ok {
		return fmt.Errorf("no such section: %s", name)
	}

	fmt.Fprintf(s.w, "Section: %s (device section: %s)\n", sr.Section, sr.OutputSection)
	fmt.Fprintf(s.w, "Status: %s\n", sr.Status)
	if len(sr.Missing) > 0 {
		fmt.Fprintln(s.w, "Missing:")
		for _, f := range sr.Missing {
			fmt.Fprintf(s.w, "  %s\n", f)
		}
	}
	if len(sr.Extra) > 0 {
		fmt.Fprintln(s.w, "Additional:")
		for _, f := range sr.Extra {
			fmt.Fprintf(s.w, "  %s\n", f)
		}
	}
	if len(sr.Missing) == 0 && len(sr.Extra) == 0 {
		fmt.Fprintln(s.w, "No issues found")
	}
	return nil
}

func (s *Shell) showIssues(kind string) error {
	var prefix string
	switch kind {
	case "":
	case "missing":
		prefix = "missing config:"
	case "extra":
		prefix = "additional config:"
	default:
		return fmt.Errorf("unknown issue kind: %s (want missing or extra)", kind)
	}

	n := 0
	for _, f := range s.result.Findings() {
		if prefix != "" && !strings.HasPrefix(f, prefix) {
			continue
		}
		fmt.Fprintf(s.w, "  %s\n", f)
		n++
	}
	if n == 0 {
		fmt.Fprintln(s.w, "No issues found")
	}
	return nil
}

func (s *Shell) showDiff(name string) error {
	sr, ok := s.result.Section(name)
	if !ok {
		return fmt.Errorf("no such section: %s", name)
	}
	diff := report.SectionDiff(sr)
	if diff == "" {
		fmt.Fprintln(s.w, "No differences")
		return nil
	}
	fmt.Fprint(s.w, diff)
	return nil
}

func (s *Shell) export(path string) error {
	if err := report.WriteFile(path, s.result); err != nil {
		return err
	}
	fmt.Fprintf(s.w, "report written to %s\n", path)
	return nil
}

func (s *Shell) showHelp() {
	fmt.Fprintln(s.w, "Available commands:")
	fmt.Fprintln(s.w, "  show summary            Run summary with per-section status")
	fmt.Fprintln(s.w, "  show sections           List audited sections")
	fmt.Fprintln(s.w, "  show section <name>     One section in detail")
	fmt.Fprintln(s.w, "  show issues [missing|extra]  Findings, optionally by kind")
	fmt.Fprintln(s.w, "  show stats              Aggregate statistics")
	fmt.Fprintln(s.w, "  diff <section>          Unified diff of whitelist vs device")
	fmt.Fprintln(s.w, "  export <path>           Write the XLSX report")
	fmt.Fprintln(s.w, "  quit                    Leave the shell")
}

// sectionNames lists the audited whitelist section names, for completion.
func (s *Shell) sectionNames() []string {
	names := make([]string, 0, len(s.result.Sections))
	for _, sr := range s.result.Sections {
		names = append(names, sr.Section)
	}
	return names
}
