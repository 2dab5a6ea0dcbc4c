package shell

import (
	"sort"
	"strings"
)

// commandTree maps each command word to its static sub-words. A nil entry
// means the next word is a section name.
var commandTree = map[string][]string{
	"show":   {"summary", "sections", "section", "issues", "stats"},
	"diff":   nil,
	"export": {},
	"help":   {},
	"quit":   {},
	"exit":   {},
}

var issueKinds = []string{"missing", "extra"}

// completer implements readline.AutoCompleter over the command tree plus
// the run's dynamic section names.
type completer struct {
	sh *Shell
}

// Do completes the word at pos, returning candidate suffixes and the length
// of the partial word they extend.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	words := strings.Fields(text)
	partial := ""
	if len(words) > 0 && !strings.HasSuffix(text, " ") {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}

	candidates := c.candidates(words)

	var out [][]rune
	for _, name := range candidates {
		if strings.HasPrefix(name, partial) {
			out = append(out, []rune(name[len(partial):]+" "))
		}
	}
	return out, len(partial)
}

// candidates returns the full candidate set for the word following the
// already-typed words.
func (c *completer) candidates(words []string) []string {
	if len(words) == 0 {
		names := make([]string, 0, len(commandTree))
		for name := range commandTree {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}

	switch words[0] {
	case "show":
		if len(words) == 1 {
			return commandTree["show"]
		}
		switch words[1] {
		case "section":
			if len(words) == 2 {
				return c.sh.sectionNames()
			}
		case "issues":
			if len(words) == 2 {
				return issueKinds
			}
		}
		return nil

	case "diff":
		if len(words) == 1 {
			return c.sh.sectionNames()
		}
		return nil

	default:
		return nil
	}
}
