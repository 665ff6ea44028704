// Package rules holds the audit rules and the engine that runs them.
//
// Every rule is a pure function of one snapshot, its parent snapshot when
// it was extracted, and the environment (token table, thresholds). Rules do
// not see each other's output, so elements can be evaluated in parallel.
package rules

import (
	"fmt"
	"strings"

	"styleaudit/internal/colormath"
	"styleaudit/internal/model"
	"styleaudit/internal/util/inline"
)

// Env is the read-only context shared by all rules of one evaluation.
type Env struct {
	Tokens TokenTable
	// MinContrast enables the numeric contrast check of LowContrast when
	// greater than zero.
	MinContrast float64
}

// CheckFunc reports whether the rule fires and the detail payload to attach.
type CheckFunc func(s model.StyleSnapshot, parent *model.StyleSnapshot, env Env) (map[string]string, bool)

// Rule binds a check to the kind and severity every issue it produces gets.
type Rule struct {
	Kind     model.IssueKind
	Severity model.Severity
	Check    CheckFunc
}

// DefaultRules returns the rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: model.MissingColorPairing, Severity: model.SeverityHigh, Check: CheckMissingColorPairing},
		{Kind: model.HardcodedColor, Severity: model.SeverityCritical, Check: CheckHardcodedColor},
		{Kind: model.PoorHierarchy, Severity: model.SeverityMedium, Check: CheckPoorHierarchy},
		{Kind: model.InvisibleText, Severity: model.SeverityCritical, Check: CheckInvisibleText},
		{Kind: model.NestedSameSurface, Severity: model.SeverityHigh, Check: CheckNestedSameSurface},
		{Kind: model.LowContrast, Severity: model.SeverityHigh, Check: CheckLowContrast},
	}
}

func CheckMissingColorPairing(s model.StyleSnapshot, _ *model.StyleSnapshot, _ Env) (map[string]string, bool) {
	decls := inline.Parse(s.InlineStyle)
	bg, ok := inline.Background(decls)
	if !ok {
		return nil, false
	}
	if _, ok := inline.Lookup(decls, "color"); ok {
		return nil, false
	}
	return map[string]string{"background": bg}, true
}

func CheckHardcodedColor(s model.StyleSnapshot, _ *model.StyleSnapshot, _ Env) (map[string]string, bool) {
	var props, literals []string
	for _, d := range inline.Parse(s.InlineStyle) {
		// custom property definitions are where literals belong
		if strings.HasPrefix(d.Property, "--") {
			continue
		}
		found := colormath.FindLiteralColors(d.Value)
		if len(found) == 0 {
			continue
		}
		props = append(props, d.Property)
		literals = append(literals, found...)
	}
	if len(literals) == 0 {
		return nil, false
	}
	return map[string]string{
		"properties": strings.Join(props, ", "),
		"literals":   strings.Join(literals, ", "),
	}, true
}

func CheckPoorHierarchy(s model.StyleSnapshot, _ *model.StyleSnapshot, _ Env) (map[string]string, bool) {
	if !s.Background.Valid || s.Background.Transparent() {
		return nil, false
	}
	if !s.Background.Equal(s.ParentBackground) {
		return nil, false
	}
	return map[string]string{
		"background":        s.Background.String(),
		"parent_background": s.ParentBackground.String(),
	}, true
}

func CheckInvisibleText(s model.StyleSnapshot, _ *model.StyleSnapshot, _ Env) (map[string]string, bool) {
	fg, bg := s.Foreground, s.Background
	if !fg.Valid {
		return nil, false
	}
	if fg.Transparent() {
		return map[string]string{"foreground": fg.String(), "reason": "transparent foreground"}, true
	}
	if bg.Valid && !bg.Transparent() && fg.Equal(bg) {
		return map[string]string{
			"foreground": fg.String(),
			"background": bg.String(),
			"reason":     "foreground equals background",
		}, true
	}
	return nil, false
}

func CheckNestedSameSurface(s model.StyleSnapshot, _ *model.StyleSnapshot, _ Env) (map[string]string, bool) {
	if !s.InsideSurface(s.SurfaceToken) {
		return nil, false
	}
	return map[string]string{"token": s.SurfaceToken}, true
}

var textTags = map[string]bool{
	"p": true, "span": true, "a": true, "label": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"small": true, "strong": true, "em": true, "td": true, "th": true,
	"button": true, "caption": true, "figcaption": true, "blockquote": true, "code": true,
}

func CheckLowContrast(s model.StyleSnapshot, parent *model.StyleSnapshot, env Env) (map[string]string, bool) {
	if !textTags[strings.ToLower(s.Tag)] {
		return nil, false
	}

	for _, c := range s.Classes {
		if r, ok := env.Tokens.Replacement(c); ok {
			return map[string]string{"token": c, "replacement": r}, true
		}
	}
	if color, ok := inline.Lookup(inline.Parse(s.InlineStyle), "color"); ok {
		for _, ref := range colormath.VarRefs(color) {
			if r, ok := env.Tokens.Replacement(ref); ok {
				return map[string]string{"token": ref, "replacement": r}, true
			}
		}
	}

	if env.MinContrast <= 0 {
		return nil, false
	}
	fg := s.Foreground
	bg := effectiveBackground(s, parent)
	if !fg.Valid || fg.A < 1 || !bg.Valid {
		return nil, false
	}
	ratio := colormath.ContrastRatio(fg, bg)
	if ratio >= env.MinContrast {
		return nil, false
	}
	return map[string]string{
		"foreground": fg.String(),
		"background": bg.String(),
		"ratio":      fmt.Sprintf("%.2f", ratio),
		"minimum":    fmt.Sprintf("%.2f", env.MinContrast),
	}, true
}

// effectiveBackground picks the first opaque background among the element,
// its recorded parent background and the parent snapshot. The result is
// invalid when none is opaque.
func effectiveBackground(s model.StyleSnapshot, parent *model.StyleSnapshot) model.Color {
	for _, c := range []model.Color{s.Background, s.ParentBackground} {
		if c.Valid && c.A == 1 {
			return c
		}
	}
	if parent != nil && parent.Background.Valid && parent.Background.A == 1 {
		return parent.Background
	}
	return model.Color{}
}
