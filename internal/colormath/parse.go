package colormath

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"styleaudit/internal/model"
)

var (
	rgbFunc = regexp.MustCompile(`^rgba?\(\s*([^)]*)\)$`)
	hexForm = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// namedColors is deliberately short: it covers what shows up in hand-written
// inline styles, not the full CSS keyword list.
var namedColors = map[string]model.Color{
	"white":   model.RGB(255, 255, 255),
	"black":   model.RGB(0, 0, 0),
	"red":     model.RGB(255, 0, 0),
	"green":   model.RGB(0, 128, 0),
	"blue":    model.RGB(0, 0, 255),
	"yellow":  model.RGB(255, 255, 0),
	"orange":  model.RGB(255, 165, 0),
	"purple":  model.RGB(128, 0, 128),
	"gray":    model.RGB(128, 128, 128),
	"grey":    model.RGB(128, 128, 128),
	"silver":  model.RGB(192, 192, 192),
	"pink":    model.RGB(255, 192, 203),
	"brown":   model.RGB(165, 42, 42),
	"navy":    model.RGB(0, 0, 128),
	"teal":    model.RGB(0, 128, 128),
	"maroon":  model.RGB(128, 0, 0),
	"olive":   model.RGB(128, 128, 0),
	"lime":    model.RGB(0, 255, 0),
	"aqua":    model.RGB(0, 255, 255),
	"cyan":    model.RGB(0, 255, 255),
	"fuchsia": model.RGB(255, 0, 255),
	"magenta": model.RGB(255, 0, 255),
}

// ParseColor accepts the forms getComputedStyle returns: rgb()/rgba() with
// comma or space separated channels and the `transparent` keyword. Anything
// else reports false so the caller can skip its check.
func ParseColor(text string) (model.Color, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "transparent" {
		return model.TransparentColor, true
	}

	m := rgbFunc.FindStringSubmatch(s)
	if m == nil {
		return model.Color{}, false
	}

	body := m[1]
	alphaPart := ""
	if i := strings.Index(body, "/"); i >= 0 {
		alphaPart = strings.TrimSpace(body[i+1:])
		body = body[:i]
	}

	var parts []string
	if strings.Contains(body, ",") {
		for _, p := range strings.Split(body, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	} else {
		parts = strings.Fields(body)
	}

	switch {
	case len(parts) == 4 && alphaPart == "":
		alphaPart, parts = parts[3], parts[:3]
	case len(parts) != 3:
		return model.Color{}, false
	}

	var ch [3]uint8
	for i, p := range parts {
		v, ok := parseChannel(p)
		if !ok {
			return model.Color{}, false
		}
		ch[i] = v
	}

	alpha := 1.0
	if alphaPart != "" {
		a, ok := parseAlpha(alphaPart)
		if !ok {
			return model.Color{}, false
		}
		alpha = a
	}

	return model.RGBA(ch[0], ch[1], ch[2], alpha), true
}

// ParseCSSColor extends ParseColor with hex notation and a handful of named
// colors, the forms authors write by hand in style attributes.
func ParseCSSColor(text string) (model.Color, bool) {
	if c, ok := ParseColor(text); ok {
		return c, true
	}

	s := strings.ToLower(strings.TrimSpace(text))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !hexForm.MatchString(s) {
		return model.Color{}, false
	}

	hex := s[1:]
	if len(hex) <= 4 {
		var sb strings.Builder
		for _, r := range hex {
			sb.WriteRune(r)
			sb.WriteRune(r)
		}
		hex = sb.String()
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return model.Color{}, false
	}
	if len(hex) == 6 {
		return model.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), true
	}
	a := math.Round(float64(uint8(v))/255*1000) / 1000
	return model.RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), a), true
}

func parseChannel(p string) (uint8, bool) {
	if strings.HasSuffix(p, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil || f < 0 || f > 100 {
			return 0, false
		}
		return uint8(math.Round(f * 255 / 100)), true
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil || f < 0 || f > 255 {
		return 0, false
	}
	return uint8(math.Round(f)), true
}

func parseAlpha(p string) (float64, bool) {
	scale := 1.0
	if strings.HasSuffix(p, "%") {
		p = strings.TrimSuffix(p, "%")
		scale = 100
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, false
	}
	f /= scale
	if f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}
