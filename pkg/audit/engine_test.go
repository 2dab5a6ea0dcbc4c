package audit

import (
	"reflect"
	"strings"
	"testing"

	"github.com/confaudit/confaudit/pkg/capture"
	"github.com/confaudit/confaudit/pkg/whitelist"
)

func wlDoc(t *testing.T, text string) *whitelist.Document {
	t.Helper()
	return whitelist.Parse(text)
}

func TestRunPlaceholderSatisfied(t *testing.T) {
	wl := wlDoc(t, "ntp:\n  \"ntp server [x.x.x.x]\"\n")
	out := &capture.Document{Data: map[string]any{
		"ntp": []any{"ntp server 10.0.0.1"},
	}}

	res := New().Run(out, wl)

	if len(res.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(res.Sections))
	}
	s := res.Sections[0]
	if s.Status != StatusOK {
		t.Errorf("status = %q, want OK (missing=%v extra=%v)", s.Status, s.Missing, s.Extra)
	}
	if s.MissingCount != 0 || s.ExtraCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", s.MissingCount, s.ExtraCount)
	}
	if res.ComplianceScore() != 100 {
		t.Errorf("compliance = %d, want 100", res.ComplianceScore())
	}
}

func TestRunReportsMissing(t *testing.T) {
	wl := wlDoc(t, "ntp:\n  \"ntp server 10.0.0.1\"\n")
	out := &capture.Document{Data: map[string]any{
		"run_config": "interface Vlan1\n shutdown",
	}}

	res := New().Run(out, wl)

	want := []string{"missing config: ntp server 10.0.0.1:Unknown-Device"}
	if !reflect.DeepEqual(res.Findings(), want) {
		t.Errorf("findings = %v, want %v", res.Findings(), want)
	}
	if res.Sections[0].Status != StatusToCheck {
		t.Errorf("status = %q, want to_check", res.Sections[0].Status)
	}
}

func TestRunSkipsEmptySections(t *testing.T) {
	// "empty" parses to zero templates and must be absent from the result.
	wl := wlDoc(t, "empty:\n  must_include:\nntp:\n  \"ntp server 10.0.0.1\"\n")
	out := &capture.Document{Data: map[string]any{}}

	res := New().Run(out, wl)
	if len(res.Sections) != 1 || res.Sections[0].Section != "ntp" {
		t.Fatalf("sections = %v", res.Summaries())
	}
}

func TestRunAliasRouting(t *testing.T) {
	wl := wlDoc(t, "logging:\n  \"logging host 10.1.1.1\"\n")
	out := &capture.Document{Data: map[string]any{
		"Log_server": []any{"logging host 10.1.1.1"},
	}}

	res := New().Run(out, wl)

	s := res.Sections[0]
	if s.OutputSection != "Log_server" {
		t.Errorf("resolved section = %q, want Log_server", s.OutputSection)
	}
	if s.Status != StatusOK {
		t.Errorf("status = %q, want OK", s.Status)
	}
}

func TestRunCaseInsensitiveFallback(t *testing.T) {
	// "tacacs" maps to "TACACS"; the capture only has "Tacacs".
	wl := wlDoc(t, "tacacs:\n  \"tacacs-server host 10.9.9.9\"\n")
	out := &capture.Document{Data: map[string]any{
		"Tacacs": []any{"tacacs-server host 10.9.9.9"},
	}}

	res := New().Run(out, wl)

	s := res.Sections[0]
	if s.OutputSection != "Tacacs" {
		t.Errorf("resolved section = %q, want Tacacs", s.OutputSection)
	}
	if s.Status != StatusOK {
		t.Errorf("status = %q, want OK (missing=%v)", s.Status, s.Missing)
	}
}

func TestRunAbsentSectionYieldsMissingOnly(t *testing.T) {
	wl := wlDoc(t, "vlan:\n  \"vlan 10\"\n  \"vlan 20\"\n")
	out := &capture.Document{Data: map[string]any{}}

	res := New().Run(out, wl)

	s := res.Sections[0]
	if s.Status != StatusToCheck {
		t.Errorf("status = %q, want to_check", s.Status)
	}
	if s.MissingCount != 2 || s.ExtraCount != 0 {
		t.Errorf("counts = %d/%d, want 2/0", s.MissingCount, s.ExtraCount)
	}
}

func TestRunVTYEnvelope(t *testing.T) {
	wl := wlDoc(t, "vty:\n  \"line1\"\n  \"line2\"\n")
	out := &capture.Document{Data: map[string]any{
		"vty": map[string]any{
			"stdout_lines": []any{[]any{"line1", "!banner", "line2"}},
		},
	}}

	res := New().Run(out, wl)

	s := res.Sections[0]
	if !reflect.DeepEqual(s.Current, []string{"line1", "line2"}) {
		t.Errorf("current = %v, want banner dropped", s.Current)
	}
	if s.Status != StatusOK {
		t.Errorf("status = %q, want OK", s.Status)
	}
}

func TestRunHostnameAttachedToAllFindings(t *testing.T) {
	wl := wlDoc(t, "ntp:\n  \"ntp server 10.0.0.1\"\nvlan:\n  \"vlan 10\"\n")
	out := &capture.Document{Data: map[string]any{
		"version": []any{"hostname core-sw"},
	}}

	res := New().Run(out, wl)

	if res.Hostname != "core-sw" {
		t.Fatalf("hostname = %q, want core-sw", res.Hostname)
	}
	for _, f := range res.Findings() {
		if !strings.HasSuffix(f, ":core-sw") {
			t.Errorf("finding %q does not carry hostname", f)
		}
	}
	for _, s := range res.Summaries() {
		if s.Hostname != "core-sw" {
			t.Errorf("summary %q hostname = %q", s.Section, s.Hostname)
		}
	}
}

func TestRunSectionOrderPreserved(t *testing.T) {
	wl := wlDoc(t, "vlan:\n  \"vlan 10\"\nntp:\n  \"ntp server 10.0.0.1\"\ndhcp:\n  \"ip dhcp pool lan\"\n")
	out := &capture.Document{Data: map[string]any{}}

	res := New().Run(out, wl)

	var names []string
	for _, s := range res.Summaries() {
		names = append(names, s.Section)
	}
	if !reflect.DeepEqual(names, []string{"vlan", "ntp", "dhcp"}) {
		t.Errorf("order = %v, want whitelist order", names)
	}
}

func TestComplianceScore(t *testing.T) {
	res := &Result{Sections: []SectionResult{
		{SectionSummary: SectionSummary{Section: "a", Status: StatusOK}},
		{SectionSummary: SectionSummary{Section: "b", Status: StatusToCheck}},
		{SectionSummary: SectionSummary{Section: "c", Status: StatusError}},
	}}
	if got := res.ComplianceScore(); got != 33 {
		t.Errorf("score = %d, want 33", got)
	}

	empty := &Result{}
	if got := empty.ComplianceScore(); got != 100 {
		t.Errorf("empty score = %d, want 100", got)
	}
}
