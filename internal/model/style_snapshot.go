package model

import "fmt"

// Color is a resolved RGBA value. Valid is false when the source text could
// not be parsed; rules treat such colors as missing evidence.
type Color struct {
	R     uint8   `json:"r"`
	G     uint8   `json:"g"`
	B     uint8   `json:"b"`
	A     float64 `json:"a"`
	Valid bool    `json:"valid"`
}

// RGB builds an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 1, Valid: true}
}

// RGBA builds a color with the given alpha in [0,1].
func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: a, Valid: true}
}

// TransparentColor is the resolved value of `transparent` and of a
// background nobody set.
var TransparentColor = Color{A: 0, Valid: true}

func (c Color) Transparent() bool {
	return c.Valid && c.A == 0
}

// Equal compares channel and alpha values exactly. Two invalid colors are
// never equal.
func (c Color) Equal(o Color) bool {
	return c.Valid && o.Valid && c.R == o.R && c.G == o.G && c.B == o.B && c.A == o.A
}

func (c Color) String() string {
	switch {
	case !c.Valid:
		return "invalid"
	case c.A == 1:
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	default:
		return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A)
	}
}

// StyleSnapshot holds the computed style facts of one examined element.
type StyleSnapshot struct {
	Index            int      `json:"index"`
	ParentIndex      int      `json:"parent_index"`
	Tag              string   `json:"tag"`
	Classes          []string `json:"classes,omitempty"`
	InlineStyle      string   `json:"inline_style,omitempty"`
	Background       Color    `json:"background"`
	Foreground       Color    `json:"foreground"`
	ParentBackground Color    `json:"parent_background"`
	Width            float64  `json:"width"`
	Height           float64  `json:"height"`
	SurfaceToken     string   `json:"surface_token,omitempty"`
	// AncestorSurfaceTokens lists the surface tokens painted above this
	// element, nearest ancestor first.
	AncestorSurfaceTokens []string `json:"ancestor_surface_tokens,omitempty"`
}

// InsideSurface reports whether some ancestor paints with token.
func (s StyleSnapshot) InsideSurface(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range s.AncestorSurfaceTokens {
		if t == token {
			return true
		}
	}
	return false
}

// Descriptor is the tag plus first class, used only for reporting.
func (s StyleSnapshot) Descriptor() string {
	if len(s.Classes) == 0 {
		return s.Tag
	}
	return s.Tag + "." + s.Classes[0]
}

// Renderable reports whether the element occupies any area.
func (s StyleSnapshot) Renderable() bool {
	return s.Width != 0 && s.Height != 0
}
