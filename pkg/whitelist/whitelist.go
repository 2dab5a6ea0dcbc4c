// Package whitelist parses policy whitelist documents into per-section
// lists of required configuration lines.
package whitelist

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section is one named group of required configuration lines. Templates may
// contain bracketed placeholders such as [x.x.x.x].
type Section struct {
	Name        string
	MustInclude []string
}

// Document is an ordered collection of whitelist sections. Section names are
// unique; a duplicate section header replaces the earlier content but keeps
// its original position.
type Document struct {
	sections []Section
	index    map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

func (d *Document) add(name string, items []string) {
	if i, ok := d.index[name]; ok {
		d.sections[i].MustInclude = items
		return
	}
	d.index[name] = len(d.sections)
	d.sections = append(d.sections, Section{Name: name, MustInclude: items})
}

// Sections returns all sections in document order.
func (d *Document) Sections() []Section {
	return d.sections
}

// Section returns the required lines for the named section.
func (d *Document) Section(name string) ([]string, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.sections[i].MustInclude, true
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.sections)
}

// Load reads and decodes a whitelist file. An unreadable file is an
// input-load failure and returned as an error; parse faults are downgraded
// to an empty document (the caller sees section-not-found downstream).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	return Decode(data), nil
}

// Decode parses whitelist bytes. It first tries the structured mapping form
// (section -> {must_include: ...}); if the bytes do not decode as that shape,
// it falls back to the line-oriented format.
func Decode(data []byte) *Document {
	if doc, err := parseStructured(data); err == nil {
		return doc
	}
	return Parse(string(data))
}

// Parser states for the line-oriented format.
const (
	stateOutside = iota // before the first section header
	stateInSection
)

// Parse reads the line-oriented whitelist format. A line with no leading
// indentation ending in a colon starts a new section; quoted and indented
// lines are items of the current section. The last section is flushed at
// EOF so no item is dropped.
func Parse(text string) *Document {
	doc := NewDocument()

	state := stateOutside
	var section string
	var items []string

	flush := func() {
		if state == stateInSection && section != "" && len(items) > 0 {
			doc.add(section, items)
		}
		items = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case line != "" && !strings.HasPrefix(line, " ") && strings.HasSuffix(line, ":"):
			flush()
			section = strings.TrimSuffix(line, ":")
			state = stateInSection

		case strings.TrimSpace(line) == "must_include:":
			// structural marker, carries no content

		case line != "" && (strings.HasPrefix(line, `"`) || strings.HasPrefix(line, "  ")):
			if state != stateInSection {
				continue
			}
			if item := cleanItem(line); item != "" {
				items = append(items, item)
			}
		}
	}
	flush()

	slog.Debug("parsed whitelist", "sections", doc.Len())
	return doc
}

// cleanItem strips the list marker and surrounding quotes from an item line.
func cleanItem(line string) string {
	item := strings.TrimSpace(line)
	if strings.HasPrefix(item, `"`) && strings.HasSuffix(item, `"`) && len(item) >= 2 {
		return item[1 : len(item)-1]
	}
	if after, ok := strings.CutPrefix(item, "- "); ok {
		item = after
		if strings.HasPrefix(item, `"`) && strings.HasSuffix(item, `"`) && len(item) >= 2 {
			item = item[1 : len(item)-1]
		}
	}
	return item
}

// parseStructured decodes the mapping form of a whitelist:
//
//	section:
//	  must_include: [list of lines]  # or a multi-line string
//
// Key order is taken from the document, which is why this walks yaml.Node
// instead of unmarshalling into a map.
func parseStructured(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("whitelist: not a mapping document")
	}

	doc := NewDocument()
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		if val.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("whitelist: section %q is not a mapping", key.Value)
		}
		items := mustIncludeItems(val)
		if len(items) > 0 {
			doc.add(key.Value, items)
		}
	}
	if doc.Len() == 0 {
		return nil, fmt.Errorf("whitelist: no sections with must_include entries")
	}
	return doc, nil
}

// mustIncludeItems extracts the must_include value of one section mapping.
func mustIncludeItems(section *yaml.Node) []string {
	for i := 0; i+1 < len(section.Content); i += 2 {
		if section.Content[i].Value != "must_include" {
			continue
		}
		val := section.Content[i+1]
		switch val.Kind {
		case yaml.SequenceNode:
			var items []string
			for _, n := range val.Content {
				if line := strings.TrimSpace(n.Value); line != "" {
					items = append(items, line)
				}
			}
			return items
		case yaml.ScalarNode:
			return splitInlineItems(val.Value)
		}
	}
	return nil
}

// splitInlineItems handles the string form of must_include: one required
// line per text line, with # comments skipped and surrounding quotes removed.
func splitInlineItems(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.Trim(line, `"'`)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
