// Package renderer is the page-rendering collaborator of the auditor. The
// auditor drives a page only through the Renderer interface; the go-rod
// implementation lives in rod.go.
package renderer

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrLaunch       = errors.New("renderer: launch failed")
	ErrTimeout      = errors.New("renderer: timed out")
	ErrNotFound     = errors.New("renderer: target not found")
	ErrStaleContext = errors.New("renderer: page context is gone")
)

// Ready signals accepted by WaitFor in place of a selector.
const (
	SignalLoad = "load"
	SignalIdle = "idle"
)

// Renderer is a single page resource. It is not safe for concurrent use:
// navigation, theme toggles and style reads all mutate the same page.
type Renderer interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches an element, or until the load or
	// idle signal when selector is "", SignalLoad or SignalIdle.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Evaluate runs a JS function in the page. The function must return
	// JSON.stringify(result); the string is decoded into out.
	Evaluate(ctx context.Context, script string, out any, args ...any) error
	Screenshot(ctx context.Context, path string, fullPage bool) error
	// Click activates the element matched by a CSS selector or, failing
	// that, the first clickable element whose text matches.
	Click(ctx context.Context, textOrSelector string) error
	Close() error
}

var staleMarkers = []string{
	"execution context was destroyed",
	"cannot find context with specified id",
	"target closed",
	"session closed",
	"inspected target navigated or closed",
}

// IsStaleContext reports whether err means the page the caller was reading
// has gone away, typically because a navigation happened mid-read.
func IsStaleContext(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStaleContext) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// looksLikeSelector guesses whether a click target is CSS rather than
// visible text.
func looksLikeSelector(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '#', '.', '[':
		return true
	}
	return strings.ContainsAny(s, "[]>#=")
}
