// Package audit implements the configuration compliance engine: it compares
// a captured device-output document against a policy whitelist and reports
// missing and extra configuration per section.
package audit

import (
	"log/slog"
	"math"
	"strings"

	"github.com/confaudit/confaudit/pkg/capture"
	"github.com/confaudit/confaudit/pkg/whitelist"
)

// Status is the per-section audit outcome.
type Status string

const (
	StatusOK      Status = "OK"
	StatusToCheck Status = "to_check"
	StatusError   Status = "error"
)

// sectionAliases maps whitelist section names to output-document section
// names. Names absent here fall back to a case-insensitive identity match
// against the available output sections.
var sectionAliases = map[string]string{
	"vty":               "vty",
	"snmp_Run":          "snmp",
	"snmp_run":          "snmp",
	"dhcp":              "dhcp",
	"tacacs":            "TACACS",
	"vlan":              "vlan",
	"logging":           "Log_server",
	"mtu":               "mtu",
	"vtyaccess_acl":     "vty_ACL",
	"snmp_ro_acl":       "snmp_ACL",
	"source_interface":  "run_config",
	"ntp":               "ntp",
	"interface_section": "run_config",
	"version":           "version",
	"license":           "License_status",
	"clock_detail":      "clock",
}

// SectionSummary is the per-section status record.
type SectionSummary struct {
	Section      string
	Hostname     string
	Status       Status
	MissingCount int
	ExtraCount   int
}

// SectionResult carries the summary plus the detail needed for diff and
// report rendering.
type SectionResult struct {
	SectionSummary
	OutputSection string // resolved output-document section name
	Missing       []string
	Extra         []string
	Current       []string // normalized device lines
	Required      []string // whitelist templates
}

// Result is the outcome of one full comparison run.
type Result struct {
	Hostname string
	Sections []SectionResult
}

// Summaries returns the per-section summary rows in processing order.
func (r *Result) Summaries() []SectionSummary {
	out := make([]SectionSummary, len(r.Sections))
	for i, s := range r.Sections {
		out[i] = s.SectionSummary
	}
	return out
}

// Findings returns all finding strings in section-processing order, missing
// before extra within a section.
func (r *Result) Findings() []string {
	var out []string
	for _, s := range r.Sections {
		out = append(out, s.Missing...)
		out = append(out, s.Extra...)
	}
	return out
}

// Section returns the result for one whitelist section name.
func (r *Result) Section(name string) (*SectionResult, bool) {
	for i := range r.Sections {
		if r.Sections[i].Section == name {
			return &r.Sections[i], true
		}
	}
	return nil, false
}

// ComplianceScore is the percentage of sections with status OK over all
// audited sections, rounded. A run with no sections scores 100.
func (r *Result) ComplianceScore() int {
	if len(r.Sections) == 0 {
		return 100
	}
	ok := 0
	for _, s := range r.Sections {
		if s.Status == StatusOK {
			ok++
		}
	}
	score := int(math.Round(float64(ok) / float64(len(r.Sections)) * 100))
	if score < 0 {
		score = 0
	}
	return score
}

// Engine drives one comparison run per Run call. It holds no cross-run
// state.
type Engine struct {
	log *slog.Logger
}

// New creates an Engine logging through the default slog logger.
func New() *Engine {
	return &Engine{log: slog.Default()}
}

// Run audits one output document against one whitelist. Sections are
// processed in whitelist order; a fault in one section marks it "error"
// and processing continues.
func (e *Engine) Run(out *capture.Document, wl *whitelist.Document) *Result {
	hostname := out.Hostname()
	e.log.Info("auditing device", "hostname", hostname, "sections", wl.Len())

	result := &Result{Hostname: hostname}
	for _, section := range wl.Sections() {
		if len(section.MustInclude) == 0 {
			e.log.Warn("no required configurations for section, skipping", "section", section.Name)
			continue
		}
		result.Sections = append(result.Sections, e.runSection(out, section, hostname))
	}
	return result
}

func (e *Engine) runSection(out *capture.Document, section whitelist.Section, hostname string) (sr SectionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("section audit failed", "section", section.Name, "panic", r)
			sr = SectionResult{SectionSummary: SectionSummary{
				Section:  section.Name,
				Hostname: hostname,
				Status:   StatusError,
			}}
		}
	}()

	outputName, payload := e.resolveSection(out, section.Name)

	var current []string
	if payload != nil {
		current = capture.NormalizeSection(payload, section.Name)
	}

	missing, extra := Compare(current, section.MustInclude, hostname, section.Name)

	status := StatusOK
	if len(missing) > 0 || len(extra) > 0 {
		status = StatusToCheck
	}
	e.log.Info("section audited", "section", section.Name,
		"missing", len(missing), "extra", len(extra), "status", status)

	return SectionResult{
		SectionSummary: SectionSummary{
			Section:      section.Name,
			Hostname:     hostname,
			Status:       status,
			MissingCount: len(missing),
			ExtraCount:   len(extra),
		},
		OutputSection: outputName,
		Missing:       missing,
		Extra:         extra,
		Current:       current,
		Required:      section.MustInclude,
	}
}

// resolveSection maps a whitelist section name to an output section via the
// alias table, then by case-insensitive scan. An absent section yields a nil
// payload, which is an empty state rather than an error.
func (e *Engine) resolveSection(out *capture.Document, name string) (string, any) {
	mapped, ok := sectionAliases[name]
	if !ok {
		mapped = name
	}
	if payload, ok := out.Section(mapped); ok {
		return mapped, payload
	}
	for _, candidate := range out.SectionNames() {
		if strings.EqualFold(candidate, mapped) {
			payload, _ := out.Section(candidate)
			return candidate, payload
		}
	}
	e.log.Debug("output section not present", "section", name, "mapped", mapped)
	return mapped, nil
}
