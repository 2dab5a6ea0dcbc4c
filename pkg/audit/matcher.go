package audit

import (
	"regexp"
	"strings"
)

// placeholderPatterns is the closed vocabulary of bracketed placeholder
// tokens and the pattern each stands for. Tokens are matched against
// normalized (lower-cased) templates, so they are spelled in lower case.
var placeholderPatterns = map[string]string{
	"[x.x.x.x]":                 `\d+\.\d+\.\d+\.\d+`,
	"[community string]":        `\S+`,
	"[username]":                `\S+`,
	"[building, site, country]": `.+`,
	"[description]":             `.+`,
}

// hasPlaceholder reports whether a template contains bracketed text. Only
// such templates may act as wildcards; they are never reported missing.
func hasPlaceholder(s string) bool {
	return strings.Contains(s, "[") && strings.Contains(s, "]")
}

// compileTemplate turns a normalized template into a prefix-anchored
// pattern. Literal segments are quoted; bracketed tokens are substituted
// from placeholderPatterns. A bracket token outside the vocabulary yields
// nil: the template then never matches, it does not error.
func compileTemplate(tmpl string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")

	rest := tmpl
	for {
		open := strings.Index(rest, "[")
		if open < 0 {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		end := strings.Index(rest[open:], "]")
		if end < 0 {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		token := rest[open : open+end+1]
		pattern, ok := placeholderPatterns[token]
		if !ok {
			return nil
		}
		b.WriteString(regexp.QuoteMeta(rest[:open]))
		b.WriteString(pattern)
		rest = rest[open+end+1:]
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil
	}
	return re
}

// matchesAnyTemplate reports whether a normalized line is an instance of
// some bracketed template in the section. Used only to suppress false
// "extra" findings.
func matchesAnyTemplate(line string, templates []string) bool {
	for _, tmpl := range templates {
		norm := normalize(tmpl)
		if !hasPlaceholder(norm) {
			continue
		}
		if re := compileTemplate(norm); re != nil && re.MatchString(line) {
			return true
		}
	}
	return false
}
