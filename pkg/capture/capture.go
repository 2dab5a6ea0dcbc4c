// Package capture decodes captured device-output documents and normalizes
// their heterogeneous section payloads into plain configuration lines.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// DefaultHostname is used when no hostname line is found in the document.
const DefaultHostname = "Unknown-Device"

// vtySection is the one section whose payload may arrive wrapped in a
// transport envelope (stdout / stdout_lines).
const vtySection = "vty"

var hostnameRe = regexp.MustCompile(`(?i)hostname\s+(\S+)`)

// Document is a captured device-output document. Each entry under Data is
// one section's raw payload: a string, a flat list, a list of lists, or a
// transport envelope object.
type Document struct {
	Data map[string]any `json:"data"`
}

// Load reads and decodes an output document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read output document: %w", err)
	}
	return Decode(data)
}

// Decode parses output document bytes.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode output document: %w", err)
	}
	return &doc, nil
}

// Section returns the raw payload for a section name.
func (d *Document) Section(name string) (any, bool) {
	payload, ok := d.Data[name]
	return payload, ok
}

// SectionNames returns the available section names, sorted.
func (d *Document) SectionNames() []string {
	names := make([]string, 0, len(d.Data))
	for name := range d.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hostname extracts the device hostname, scanning the version section lines
// first and the run_config blob second. Returns DefaultHostname when neither
// yields a "hostname <token>" match.
func (d *Document) Hostname() string {
	if d == nil || d.Data == nil {
		return DefaultHostname
	}

	if version, ok := d.Data["version"].([]any); ok {
		for _, item := range version {
			line, ok := item.(string)
			if !ok {
				continue
			}
			if m := hostnameRe.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
	}

	if runConfig, ok := d.Data["run_config"].(string); ok {
		for _, line := range strings.Split(runConfig, "\n") {
			if m := hostnameRe.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
	}

	return DefaultHostname
}

// NormalizeSection flattens one section's raw payload into configuration
// lines. Every emitted line is trimmed; empty lines and "!" comment/banner
// lines are dropped. Unknown payload shapes yield an empty slice.
func NormalizeSection(payload any, section string) []string {
	switch v := payload.(type) {
	case map[string]any:
		if section == vtySection {
			return normalizeEnvelope(v)
		}
		return nil

	case []any:
		var lines []string
		for _, item := range v {
			switch it := item.(type) {
			case string:
				lines = appendLine(lines, it)
			case []any:
				// Tabular rows (ACL entries) join into one composite line.
				lines = appendLine(lines, joinFields(it))
			}
		}
		return lines

	case string:
		return splitLines(v)

	default:
		return nil
	}
}

// normalizeEnvelope unwraps a transport envelope: stdout_lines is a list of
// line-groups and wins over stdout, a list of multi-line strings.
func normalizeEnvelope(env map[string]any) []string {
	if groups, ok := env["stdout_lines"].([]any); ok && len(groups) > 0 {
		var lines []string
		for _, group := range groups {
			items, ok := group.([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				if s, ok := item.(string); ok {
					lines = appendLine(lines, s)
				}
			}
		}
		return lines
	}

	if stdout, ok := env["stdout"].([]any); ok {
		var lines []string
		for _, item := range stdout {
			if s, ok := item.(string); ok {
				lines = append(lines, splitLines(s)...)
			}
		}
		return lines
	}

	return nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		lines = appendLine(lines, line)
	}
	return lines
}

// appendLine applies the uniform post-processing: trim, drop empties and
// "!" markers.
func appendLine(lines []string, line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "!") {
		return lines
	}
	return append(lines, line)
}

func joinFields(fields []any) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		if s := fmt.Sprint(f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
