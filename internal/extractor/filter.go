package extractor

import (
	"strings"

	"styleaudit/internal/model"
)

// Filter selects which snapshots an extraction keeps.
type Filter func(model.StyleSnapshot) bool

func All(model.StyleSnapshot) bool { return true }

func HasInlineStyle(s model.StyleSnapshot) bool {
	return strings.TrimSpace(s.InlineStyle) != ""
}

// OnSurface keeps elements that paint a surface or sit inside one.
func OnSurface(s model.StyleSnapshot) bool {
	return s.SurfaceToken != "" || len(s.AncestorSurfaceTokens) > 0
}

func And(filters ...Filter) Filter {
	return func(s model.StyleSnapshot) bool {
		for _, f := range filters {
			if !f(s) {
				return false
			}
		}
		return true
	}
}

func Or(filters ...Filter) Filter {
	return func(s model.StyleSnapshot) bool {
		for _, f := range filters {
			if f(s) {
				return true
			}
		}
		return false
	}
}

// ByName resolves a filter from configuration. Unknown names report false.
func ByName(name string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return All, true
	case "inline", "inline-style":
		return HasInlineStyle, true
	case "surface", "on-surface":
		return OnSurface, true
	case "inline-or-surface":
		return Or(HasInlineStyle, OnSurface), true
	}
	return nil, false
}
