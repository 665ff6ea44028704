// Package extractor turns a rendered page into StyleSnapshot records.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"styleaudit/internal/colormath"
	"styleaudit/internal/model"
	"styleaudit/internal/renderer"
)

var (
	// ErrStaleContext means the page went away mid-read. Re-extract from a
	// fresh render; retrying the same read cannot succeed.
	ErrStaleContext = renderer.ErrStaleContext
	ErrRootNotFound = errors.New("extractor: root element not found")
)

const DefaultRoot = "body"

// Evaluator is the part of the renderer the extractor needs.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, out any, args ...any) error
}

// SurfaceResolver names the surface token an element paints with, or ""
// when it paints none.
type SurfaceResolver interface {
	SurfaceFor(classes []string, inlineStyle string) string
}

// rawElement is what the in-page script reports per element. Colors stay
// as computed-style text until build parses them.
type rawElement struct {
	Index       int      `json:"i"`
	ParentIndex int      `json:"p"`
	Tag         string   `json:"tag"`
	Classes     []string `json:"classes"`
	Style       string   `json:"style"`
	Background  string   `json:"bg"`
	Foreground  string   `json:"fg"`
	ParentBg    string   `json:"pbg"`
	Width       float64  `json:"w"`
	Height      float64  `json:"h"`
}

type scriptResult struct {
	Found    bool         `json:"found"`
	Elements []rawElement `json:"elements"`
}

// snapshotScript reads computed styles of the root and all its descendants
// in document order. It only reads; nothing on the page is modified.
const snapshotScript = `(rootSelector) => {
	const root = document.querySelector(rootSelector);
	if (!root) {
		return JSON.stringify({found: false, elements: []});
	}
	const index = new Map();
	const elements = [];
	const all = [root, ...root.querySelectorAll('*')];
	for (const el of all) {
		const i = elements.length;
		index.set(el, i);
		const cs = getComputedStyle(el);
		const parent = el.parentElement;
		const rect = el.getBoundingClientRect();
		elements.push({
			i: i,
			p: parent && index.has(parent) ? index.get(parent) : -1,
			tag: el.tagName.toLowerCase(),
			classes: Array.from(el.classList),
			style: el.getAttribute('style') || '',
			bg: cs.backgroundColor,
			fg: cs.color,
			pbg: parent ? getComputedStyle(parent).backgroundColor : '',
			w: rect.width,
			h: rect.height,
		});
	}
	return JSON.stringify({found: true, elements: elements});
}`

// Extract reads one snapshot per element under root that passes filter,
// in document order. Zero-size elements are dropped before filtering.
func Extract(ctx context.Context, ev Evaluator, root string, filter Filter, surfaces SurfaceResolver) ([]model.StyleSnapshot, error) {
	if root == "" {
		root = DefaultRoot
	}

	var res scriptResult
	if err := ev.Evaluate(ctx, snapshotScript, &res, root); err != nil {
		if renderer.IsStaleContext(err) {
			return nil, fmt.Errorf("%w: %v", ErrStaleContext, err)
		}
		return nil, fmt.Errorf("extract styles: %w", err)
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, root)
	}

	return build(res.Elements, filter, surfaces), nil
}

func build(raws []rawElement, filter Filter, surfaces SurfaceResolver) []model.StyleSnapshot {
	if filter == nil {
		filter = All
	}

	// Surface tokens are resolved over the full tree first so that an
	// ancestor that is filtered out or zero-sized still counts.
	tokens := make([]string, len(raws))
	pos := make(map[int]int, len(raws))
	for i, r := range raws {
		pos[r.Index] = i
		if surfaces != nil {
			tokens[i] = surfaces.SurfaceFor(r.Classes, r.Style)
		}
	}

	var snaps []model.StyleSnapshot
	for i, r := range raws {
		s := model.StyleSnapshot{
			Index:            r.Index,
			ParentIndex:      r.ParentIndex,
			Tag:              r.Tag,
			Classes:          r.Classes,
			InlineStyle:      r.Style,
			Background:       parse(r.Background),
			Foreground:       parse(r.Foreground),
			ParentBackground: parse(r.ParentBg),
			Width:            r.Width,
			Height:           r.Height,
			SurfaceToken:     tokens[i],
		}
		for p := r.ParentIndex; p >= 0; {
			j, ok := pos[p]
			if !ok {
				break
			}
			if tokens[j] != "" {
				s.AncestorSurfaceTokens = append(s.AncestorSurfaceTokens, tokens[j])
			}
			p = raws[j].ParentIndex
		}

		if !s.Renderable() || !filter(s) {
			continue
		}
		snaps = append(snaps, s)
	}
	return snaps
}

// parse returns an invalid Color for text ParseColor rejects; rules skip
// checks on invalid colors.
func parse(text string) model.Color {
	c, _ := colormath.ParseColor(text)
	return c
}
