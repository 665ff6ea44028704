package colormath

import (
	"regexp"
	"strings"
)

var (
	literalHex  = regexp.MustCompile(`#(?:[0-9a-fA-F]{8}|[0-9a-fA-F]{6}|[0-9a-fA-F]{3,4})\b`)
	literalFunc = regexp.MustCompile(`(?i)\b(?:rgba?|hsla?|hwb|lab|lch|oklab|oklch)\(`)
	literalWord = regexp.MustCompile(`(?i)\b[a-z]+\b`)
	urlRef      = regexp.MustCompile(`(?i)url\([^)]*\)`)
)

// FindLiteralColors returns the color literals in a CSS declaration value,
// in order of appearance. Anything inside var(...) is token indirection and
// is ignored, fallback values included.
func FindLiteralColors(value string) []string {
	v := urlRef.ReplaceAllString(stripVarRefs(value), " ")

	type hit struct {
		at   int
		text string
	}
	var hits []hit

	for _, loc := range literalHex.FindAllStringIndex(v, -1) {
		hits = append(hits, hit{loc[0], v[loc[0]:loc[1]]})
	}
	for _, loc := range literalFunc.FindAllStringIndex(v, -1) {
		end := closingParen(v, loc[1]-1)
		hits = append(hits, hit{loc[0], v[loc[0]:end]})
	}
	for _, loc := range literalWord.FindAllStringIndex(v, -1) {
		w := strings.ToLower(v[loc[0]:loc[1]])
		if _, ok := namedColors[w]; !ok {
			continue
		}
		// Skip words that are part of a function name or a hyphenated
		// keyword such as `white-space` or `pre-line`.
		if loc[0] > 0 && (v[loc[0]-1] == '-' || v[loc[0]-1] == '#') {
			continue
		}
		if loc[1] < len(v) && (v[loc[1]] == '-' || v[loc[1]] == '(') {
			continue
		}
		hits = append(hits, hit{loc[0], v[loc[0]:loc[1]]})
	}

	// insertion sort; a declaration holds a handful of hits at most
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].at < hits[j-1].at; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.text)
	}
	return out
}

// IsLiteralColor reports whether value carries at least one color literal
// outside of a var(...) reference.
func IsLiteralColor(value string) bool {
	return len(FindLiteralColors(value)) > 0
}

// VarRefs returns the custom property names referenced through var(...),
// including nested fallbacks, e.g. "--md-sys-color-surface".
func VarRefs(value string) []string {
	var refs []string
	lower := strings.ToLower(value)
	for i := 0; ; {
		j := strings.Index(lower[i:], "var(")
		if j < 0 {
			return refs
		}
		start := i + j + len("var(")
		end := start
		for end < len(value) && value[end] != ',' && value[end] != ')' {
			end++
		}
		if name := strings.TrimSpace(value[start:end]); name != "" {
			refs = append(refs, name)
		}
		i = start
	}
}

func stripVarRefs(value string) string {
	var sb strings.Builder
	lower := strings.ToLower(value)
	i := 0
	for {
		j := strings.Index(lower[i:], "var(")
		if j < 0 {
			sb.WriteString(value[i:])
			return sb.String()
		}
		sb.WriteString(value[i : i+j])
		sb.WriteByte(' ')
		i = closingParen(value, i+j+len("var"))
	}
}

// closingParen returns the index just past the parenthesis matching the one
// at open, or len(s) when unbalanced.
func closingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}
