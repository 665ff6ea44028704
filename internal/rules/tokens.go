package rules

import (
	"strings"

	"styleaudit/internal/colormath"
	"styleaudit/internal/util/inline"
)

// TokenTable describes the design-token vocabulary the rules consult.
type TokenTable struct {
	// SurfaceTokens are custom property names that paint a surface layer.
	SurfaceTokens []string `yaml:"surface_tokens" json:"surface_tokens"`
	// SurfaceClasses maps utility classes to the surface token they apply.
	SurfaceClasses map[string]string `yaml:"surface_classes" json:"surface_classes"`
	// RestrictedText maps a class name or custom property that must never
	// color body text to the token that should be used instead.
	RestrictedText map[string]string `yaml:"restricted_text" json:"restricted_text"`
}

const (
	mdSurface          = "--md-sys-color-surface"
	mdOnSurface        = "--md-sys-color-on-surface"
	mdOnSurfaceVariant = "--md-sys-color-on-surface-variant"
)

// DefaultTokens returns the Material-style vocabulary the design system
// ships with.
func DefaultTokens() TokenTable {
	return TokenTable{
		SurfaceTokens: []string{
			mdSurface,
			mdSurface + "-dim",
			mdSurface + "-bright",
			mdSurface + "-variant",
			mdSurface + "-container-lowest",
			mdSurface + "-container-low",
			mdSurface + "-container",
			mdSurface + "-container-high",
			mdSurface + "-container-highest",
		},
		SurfaceClasses: map[string]string{
			"surface":                   mdSurface,
			"surface-variant":           mdSurface + "-variant",
			"surface-container-lowest":  mdSurface + "-container-lowest",
			"surface-container-low":     mdSurface + "-container-low",
			"surface-container":         mdSurface + "-container",
			"surface-container-high":    mdSurface + "-container-high",
			"surface-container-highest": mdSurface + "-container-highest",
		},
		RestrictedText: map[string]string{
			"text-outline":                   mdOnSurfaceVariant,
			"text-outline-variant":           mdOnSurfaceVariant,
			"text-disabled":                  mdOnSurface,
			"--md-sys-color-outline":         mdOnSurfaceVariant,
			"--md-sys-color-outline-variant": mdOnSurfaceVariant,
		},
	}
}

// Merge overlays o on top of t: non-empty lists replace, map entries are
// added or overridden.
func (t TokenTable) Merge(o TokenTable) TokenTable {
	out := TokenTable{
		SurfaceTokens:  t.SurfaceTokens,
		SurfaceClasses: make(map[string]string, len(t.SurfaceClasses)+len(o.SurfaceClasses)),
		RestrictedText: make(map[string]string, len(t.RestrictedText)+len(o.RestrictedText)),
	}
	if len(o.SurfaceTokens) > 0 {
		out.SurfaceTokens = o.SurfaceTokens
	}
	for k, v := range t.SurfaceClasses {
		out.SurfaceClasses[k] = v
	}
	for k, v := range o.SurfaceClasses {
		out.SurfaceClasses[k] = v
	}
	for k, v := range t.RestrictedText {
		out.RestrictedText[k] = v
	}
	for k, v := range o.RestrictedText {
		out.RestrictedText[k] = v
	}
	return out
}

func (t TokenTable) IsSurfaceToken(name string) bool {
	for _, s := range t.SurfaceTokens {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Replacement returns the recommended token for a restricted class or
// custom property.
func (t TokenTable) Replacement(name string) (string, bool) {
	r, ok := t.RestrictedText[name]
	return r, ok
}

// SurfaceFor resolves the surface token an element paints with. A var()
// reference in the inline background wins over a surface utility class.
// It returns "" when the element paints no known surface.
func (t TokenTable) SurfaceFor(classes []string, inlineStyle string) string {
	if bg, ok := inline.Background(inline.Parse(inlineStyle)); ok {
		for _, ref := range colormath.VarRefs(bg) {
			if t.IsSurfaceToken(ref) {
				return ref
			}
		}
	}
	for _, c := range classes {
		if tok, ok := t.SurfaceClasses[c]; ok {
			return tok
		}
	}
	return ""
}
