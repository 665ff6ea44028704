// Package colormath holds the pure color functions the audit rules are
// built on: WCAG relative luminance, contrast ratio, and parsing of the
// color forms computed styles and inline styles produce.
package colormath

import (
	"errors"
	"fmt"
	"math"

	"styleaudit/internal/model"
)

var ErrInvalidColorComponent = errors.New("color component out of range")

// RelativeLuminance returns the WCAG relative luminance of an sRGB color
// given as 0-255 channels.
func RelativeLuminance(r, g, b int) (float64, error) {
	for _, c := range [...]int{r, g, b} {
		if c < 0 || c > 255 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidColorComponent, c)
		}
	}
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b), nil
}

func linear(c int) float64 {
	v := float64(c) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func luminance(c model.Color) float64 {
	// uint8 channels are always in range.
	l, _ := RelativeLuminance(int(c.R), int(c.G), int(c.B))
	return l
}

// ContrastRatio is symmetric and never below 1. Alpha is ignored; callers
// decide whether a translucent color is worth comparing.
func ContrastRatio(a, b model.Color) float64 {
	l1, l2 := luminance(a), luminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}
