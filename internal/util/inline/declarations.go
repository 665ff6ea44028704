// Package inline parses the text of a style attribute into declarations.
package inline

import "strings"

type Declaration struct {
	Property string
	Value    string
}

// Parse splits style text on semicolons that are not inside parentheses or
// quotes. Property names are lowercased; values are trimmed and the
// !important flag is dropped.
func Parse(style string) []Declaration {
	var (
		decls []Declaration
		depth int
		quote rune
		start int
	)

	flush := func(end int) {
		part := strings.TrimSpace(style[start:end])
		start = end + 1
		i := strings.IndexByte(part, ':')
		if i <= 0 {
			return
		}
		prop := strings.ToLower(strings.TrimSpace(part[:i]))
		val := strings.TrimSpace(part[i+1:])
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		if prop == "" || val == "" {
			return
		}
		decls = append(decls, Declaration{Property: prop, Value: val})
	}

	for i, r := range style {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			flush(i)
		}
	}
	flush(len(style))

	return decls
}

// Lookup returns the last value declared for prop, matching how the cascade
// resolves repeated declarations inside one style attribute.
func Lookup(decls []Declaration, prop string) (string, bool) {
	val, found := "", false
	for _, d := range decls {
		if d.Property == prop {
			val, found = d.Value, true
		}
	}
	return val, found
}

// Background returns whichever of background-color and the background
// shorthand is declared last, since the later one wins the cascade.
func Background(decls []Declaration) (string, bool) {
	val, found := "", false
	for _, d := range decls {
		if d.Property == "background-color" || d.Property == "background" {
			val, found = d.Value, true
		}
	}
	return val, found
}
