package audit

import (
	"fmt"
	"log/slog"
	"strings"
)

// boilerplateMarkers are substrings of device-generated preamble lines.
// Lines containing any of them are never reported as extra. The "version"
// entry is broad on purpose: it also drops IOS version banner lines.
var boilerplateMarkers = []string{
	"building configuration",
	"current configuration",
	"version",
	"service timestamps",
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Compare diffs one section's current device lines against its required
// templates. Missing findings follow template order, extra findings follow
// input-line order; for identical inputs the output is identical.
//
// A fault during comparison is downgraded to empty results for this section
// only, per the section-granular error policy.
func Compare(current, required []string, hostname, section string) (missing, extra []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("comparison failed", "section", section, "panic", r)
			missing, extra = nil, nil
		}
	}()

	currentSet := make(map[string]bool, len(current))
	for _, line := range current {
		currentSet[normalize(line)] = true
	}
	requiredSet := make(map[string]bool, len(required))
	for _, tmpl := range required {
		requiredSet[normalize(tmpl)] = true
	}

	// Placeholder templates describe variable content, not a literal
	// presence requirement, so they are never reported missing.
	for _, tmpl := range required {
		norm := normalize(tmpl)
		if hasPlaceholder(norm) {
			continue
		}
		if !currentSet[norm] {
			missing = append(missing, fmt.Sprintf("missing config: %s:%s", tmpl, hostname))
		}
	}

	for _, line := range current {
		norm := normalize(line)
		if isBoilerplate(norm) {
			continue
		}
		if requiredSet[norm] {
			continue
		}
		if matchesAnyTemplate(norm, required) {
			continue
		}
		extra = append(extra, fmt.Sprintf("additional config: %s:%s", line, hostname))
	}

	return missing, extra
}

func isBoilerplate(norm string) bool {
	for _, marker := range boilerplateMarkers {
		if strings.Contains(norm, marker) {
			return true
		}
	}
	return false
}
