package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"styleaudit/internal/log"
)

// clickable elements searched when a toggle is given by its label
const clickableSelector = `button, a, [role="button"], [role="switch"], [role="menuitem"], label, summary`

type RodOptions struct {
	// ControlURL connects to an already running Chrome instead of
	// launching one.
	ControlURL     string
	Bin            string
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	// ColorScheme, when "light" or "dark", is emulated through the
	// prefers-color-scheme media feature.
	ColorScheme string
}

func (o *RodOptions) defaults() {
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = 1440
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = 900
	}
}

// Rod is a Renderer backed by one Chrome tab.
type Rod struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
}

// LaunchRod starts (or connects to) Chrome and opens the single tab the
// run will reuse. Every failure is reported as ErrLaunch.
func LaunchRod(ctx context.Context, opts RodOptions) (*Rod, error) {
	opts.defaults()
	r := &Rod{}

	wsURL := opts.ControlURL
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
		}
		wsURL = u
		r.lnch = l
		log.Logger.Info("launched local chrome", zap.String("url", wsURL), zap.Bool("headless", opts.Headless))
	} else {
		log.Logger.Info("connecting to remote chrome", zap.String("url", wsURL))
	}

	r.browser = rod.New().ControlURL(wsURL)
	if err := r.browser.Connect(); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: connect: %v", ErrLaunch, err)
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: open tab: %v", ErrLaunch, err)
	}
	r.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Logger.Warn("failed to set viewport", zap.Error(err))
	}

	if opts.ColorScheme == "light" || opts.ColorScheme == "dark" {
		err := proto.EmulationSetEmulatedMedia{
			Features: []*proto.EmulationMediaFeature{{Name: "prefers-color-scheme", Value: opts.ColorScheme}},
		}.Call(page)
		if err != nil {
			log.Logger.Warn("failed to emulate color scheme",
				zap.String("scheme", opts.ColorScheme),
				zap.Error(err),
			)
		}
	}

	return r, nil
}

func (r *Rod) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return classify(fmt.Errorf("navigate %s: %w", url, err))
	}
	if err := p.WaitLoad(); err != nil {
		return classify(fmt.Errorf("wait load %s: %w", url, err))
	}
	return nil
}

func (r *Rod) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := r.page.Context(tctx)
	var err error
	switch selector {
	case "", SignalLoad:
		err = p.WaitLoad()
	case SignalIdle:
		err = p.WaitIdle(timeout)
	default:
		_, err = p.Element(selector)
	}
	if err != nil {
		return classify(fmt.Errorf("wait for %q: %w", selector, err))
	}
	return nil
}

func (r *Rod) Evaluate(ctx context.Context, script string, out any, args ...any) error {
	res, err := r.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return classify(fmt.Errorf("evaluate: %w", err))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), out); err != nil {
		return fmt.Errorf("evaluate: decode result: %w", err)
	}
	return nil
}

func (r *Rod) Screenshot(ctx context.Context, path string, fullPage bool) error {
	data, err := r.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return classify(fmt.Errorf("screenshot: %w", err))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *Rod) Click(ctx context.Context, target string) error {
	p := r.page.Context(ctx)

	var (
		el  *rod.Element
		err error
	)
	if looksLikeSelector(target) {
		el, err = p.Element(target)
	} else {
		el, err = p.ElementR(clickableSelector, jsRegex(target))
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %q", ErrNotFound, target)
		}
		return classify(fmt.Errorf("locate %q: %w", target, err))
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(fmt.Errorf("click %q: %w", target, err))
	}
	return nil
}

// Close releases the tab, the browser connection and the launched process.
// It is safe to call on a partially launched Rod.
func (r *Rod) Close() error {
	var errs []error
	if r.page != nil {
		if err := r.page.Close(); err != nil && !IsStaleContext(err) {
			errs = append(errs, err)
		}
		r.page = nil
	}
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return errors.Join(errs...)
}

// jsRegex builds the /pattern/i literal ElementR expects from plain text.
func jsRegex(text string) string {
	return "/" + strings.ReplaceAll(regexp.QuoteMeta(text), "/", `\/`) + "/i"
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case IsStaleContext(err) && !errors.Is(err, ErrStaleContext):
		return fmt.Errorf("%w: %v", ErrStaleContext, err)
	}
	return err
}
