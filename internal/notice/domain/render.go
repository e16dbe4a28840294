package domain

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Render substitutes {{name}} placeholders with the given values.
// Matching is literal and case-sensitive; placeholders without a value
// are left untouched so a reviewer can spot the gap in the output.
func Render(body string, values map[string]string) string {
	out := body
	for name, value := range values {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}

// ExtractVariables returns the distinct placeholder names of a body,
// in order of first appearance.
func ExtractVariables(body string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}
