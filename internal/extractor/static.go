package extractor

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"styleaudit/internal/colormath"
	"styleaudit/internal/model"
	"styleaudit/internal/util/inline"
	"styleaudit/internal/util/markup"
)

// unknownSize marks layout the static path cannot compute. It is non-zero
// so the element counts as renderable.
const unknownSize = -1

var skippedTags = map[string]bool{
	"script": true, "style": true, "template": true, "noscript": true,
	"head": true, "meta": true, "link": true, "title": true,
}

// FromHTML builds snapshots from markup without a browser. Only inline
// styles are resolved: backgrounds default to transparent, text color is
// inherited, and token references resolve to invalid colors so color rules
// skip them. display:none and zero width or height hide an element and its
// subtree.
func FromHTML(r io.Reader, root string, filter Filter, surfaces SurfaceResolver) ([]model.StyleSnapshot, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	if root == "" {
		root = DefaultRoot
	}
	start := markup.FindFirst(doc, root)
	if start == nil {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, root)
	}

	var raws []rawElement
	var walk func(n *html.Node, parent int, parentBg, inheritedFg model.Color, hidden bool)
	walk = func(n *html.Node, parent int, parentBg, inheritedFg model.Color, hidden bool) {
		if !markup.IsElement(n, "") || skippedTags[n.Data] {
			return
		}

		style := markup.GetAttr(n, "style")
		decls := inline.Parse(style)

		bg := model.TransparentColor
		if v, ok := inline.Background(decls); ok {
			bg = staticColor(v)
		}
		fg := inheritedFg
		if v, ok := inline.Lookup(decls, "color"); ok {
			fg = staticColor(v)
		}
		hidden = hidden || isHidden(decls)

		size := float64(unknownSize)
		if hidden {
			size = 0
		}

		idx := len(raws)
		raws = append(raws, rawElement{
			Index:       idx,
			ParentIndex: parent,
			Tag:         n.Data,
			Classes:     markup.ClassList(n),
			Style:       style,
			Background:  bg.String(),
			Foreground:  fg.String(),
			ParentBg:    parentBg.String(),
			Width:       size,
			Height:      size,
		})

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, idx, bg, fg, hidden)
		}
	}
	walk(start, -1, model.TransparentColor, model.RGB(0, 0, 0), false)

	return build(raws, filter, surfaces), nil
}

// staticColor resolves a declaration value to the color it paints. For
// shorthands like `#fff url(x.png)` the first literal wins.
func staticColor(value string) model.Color {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "none":
		return model.TransparentColor
	case "inherit", "initial", "unset", "currentcolor":
		return model.Color{}
	}
	if c, ok := colormath.ParseCSSColor(v); ok {
		return c
	}
	if lits := colormath.FindLiteralColors(value); len(lits) > 0 && !strings.Contains(v, "var(") {
		if c, ok := colormath.ParseCSSColor(lits[0]); ok {
			return c
		}
	}
	return model.Color{}
}

func isHidden(decls []inline.Declaration) bool {
	if v, ok := inline.Lookup(decls, "display"); ok && strings.EqualFold(v, "none") {
		return true
	}
	for _, prop := range []string{"width", "height"} {
		if v, ok := inline.Lookup(decls, prop); ok && isZeroLength(v) {
			return true
		}
	}
	return false
}

func isZeroLength(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimRight(v, "pxremvwh%")
	return v == "0" || v == "0.0"
}
