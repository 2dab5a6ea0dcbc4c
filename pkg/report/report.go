// Package report renders audit results: the three-sheet XLSX artifact, the
// console summary, aggregate statistics, and per-section unified diffs.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/xuri/excelize/v2"

	"github.com/confaudit/confaudit/pkg/audit"
)

const (
	sheetSummary = "Summary"
	sheetIssues  = "Issues_to_Check"
	sheetStats   = "Statistics"
)

// Stats are the aggregate figures of one audit run.
type Stats struct {
	Hostname    string `json:"hostname"`
	Sections    int    `json:"sections_checked"`
	TotalIssues int    `json:"total_issues"`
	Missing     int    `json:"missing_configurations"`
	Extra       int    `json:"additional_configurations"`
	Compliance  int    `json:"compliance_score"`
}

// BuildStats derives aggregate statistics from a run result. Missing and
// extra counts are taken from the finding prefixes, matching the workbook's
// statistics sheet.
func BuildStats(res *audit.Result) Stats {
	findings := res.Findings()
	s := Stats{
		Hostname:    res.Hostname,
		Sections:    len(res.Sections),
		TotalIssues: len(findings),
		Compliance:  res.ComplianceScore(),
	}
	for _, f := range findings {
		switch {
		case strings.HasPrefix(f, "missing config:"):
			s.Missing++
		case strings.HasPrefix(f, "additional config:"):
			s.Extra++
		}
	}
	return s
}

// Write renders the three-sheet workbook to w.
func Write(w io.Writer, res *audit.Result) error {
	f, err := build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile renders the workbook to a file path.
func WriteFile(path string, res *audit.Result) error {
	f, err := build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func build(res *audit.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, res); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeIssuesSheet(f, res.Findings()); err != nil {
		f.Close()
		return nil, fmt.Errorf("issues sheet: %w", err)
	}
	if err := writeStatsSheet(f, BuildStats(res)); err != nil {
		f.Close()
		return nil, fmt.Errorf("statistics sheet: %w", err)
	}
	return f, nil
}

// writeSummarySheet emits the single pivoted device row: serial number,
// hostname, then one upper-cased column per audited section.
func writeSummarySheet(f *excelize.File, res *audit.Result) error {
	header := []any{"SR.No.", "hostname of the devices"}
	row := []any{1, res.Hostname}
	for _, s := range res.Summaries() {
		header = append(header, strings.ToUpper(s.Section))
		row = append(row, string(s.Status))
	}
	if err := f.SetSheetRow(sheetSummary, "A1", &header); err != nil {
		return err
	}
	return f.SetSheetRow(sheetSummary, "A2", &row)
}

func writeIssuesSheet(f *excelize.File, findings []string) error {
	if _, err := f.NewSheet(sheetIssues); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetIssues, "A1", "to_check"); err != nil {
		return err
	}
	for i, finding := range findings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetIssues, cell, finding); err != nil {
			return err
		}
	}
	return nil
}

func writeStatsSheet(f *excelize.File, stats Stats) error {
	if _, err := f.NewSheet(sheetStats); err != nil {
		return err
	}
	rows := [][]any{
		{"Metric", "Count"},
		{"Device Hostname", stats.Hostname},
		{"Total Sections Checked", stats.Sections},
		{"Total Issues Found", stats.TotalIssues},
		{"Missing Configurations", stats.Missing},
		{"Additional Configurations", stats.Extra},
		{"Compliance Score", fmt.Sprintf("%d%%", stats.Compliance)},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetStats, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints the console summary block for a completed run.
func RenderSummary(w io.Writer, res *audit.Result) {
	stats := BuildStats(res)
	fmt.Fprintf(w, "Device: %s\n", stats.Hostname)
	fmt.Fprintf(w, "Total sections processed: %d\n", stats.Sections)
	fmt.Fprintf(w, "Total issues found: %d\n", stats.TotalIssues)
	fmt.Fprintf(w, "Compliance score: %d%%\n", stats.Compliance)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary by section:")
	for _, s := range res.Summaries() {
		fmt.Fprintf(w, "  %s: %s (%d missing, %d additional)\n",
			s.Section, s.Status, s.MissingCount, s.ExtraCount)
	}
}

// SectionDiff renders a unified diff of a section's whitelist templates
// against the device's normalized lines. Returns "" when there is nothing
// to show.
func SectionDiff(sr *audit.SectionResult) string {
	if sr == nil {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        diffLines(sr.Required),
		B:        diffLines(sr.Current),
		FromFile: "whitelist/" + sr.Section,
		ToFile:   sr.Hostname + "/" + sr.OutputSection,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func diffLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
