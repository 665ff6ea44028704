// Package service drives pages through the audit state machine and folds
// the results into a run.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"styleaudit/internal/config"
	"styleaudit/internal/extractor"
	"styleaudit/internal/log"
	"styleaudit/internal/model"
	"styleaudit/internal/renderer"
	"styleaudit/internal/report"
	"styleaudit/internal/rules"
	"styleaudit/internal/util"
)

var (
	ErrRunTimeout      = errors.New("audit run timed out")
	ErrRunCancelled    = errors.New("audit run cancelled")
	ErrBaseUnreachable = errors.New("base url unreachable: every page failed to load")
	ErrRendererLaunch  = renderer.ErrLaunch
)

const (
	defaultNavTimeout   = 30 * time.Second
	defaultReadyTimeout = 10 * time.Second
)

// Observer is told about every finished page and the finished run.
type Observer interface {
	PageDone(result model.PageAuditResult)
	RunDone(ctx context.Context, run model.AuditRun)
}

type Options struct {
	BaseURL       string
	Root          string
	Filter        extractor.Filter
	NavTimeout    time.Duration
	ReadyTimeout  time.Duration
	SettleDelay   time.Duration
	ScreenshotDir string
	// PageRate caps page starts per second; 0 means no pacing.
	PageRate  float64
	Observers []Observer
}

// Auditor runs pages one at a time on a single renderer. It is not safe for
// concurrent use.
type Auditor struct {
	renderer renderer.Renderer
	engine   *rules.Engine
	opts     Options
	limiter  *rate.Limiter
}

func NewAuditor(r renderer.Renderer, engine *rules.Engine, opts Options) *Auditor {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = defaultNavTimeout
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	if opts.Root == "" {
		opts.Root = extractor.DefaultRoot
	}
	if opts.Filter == nil {
		opts.Filter = extractor.All
	}

	a := &Auditor{renderer: r, engine: engine, opts: opts}
	if opts.PageRate > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(opts.PageRate), 1)
	}
	return a
}

// Run audits pages in order. Page failures are recorded on the page and the
// run continues. When ctx ends, the pages finished so far are aggregated and
// returned together with ErrRunTimeout or ErrRunCancelled.
func (a *Auditor) Run(ctx context.Context, pages []config.Page) (model.AuditRun, error) {
	id := uuid.NewString()
	started := time.Now()

	log.Logger.Info("audit run started",
		zap.String("run_id", id),
		zap.Int("pages", len(pages)),
		zap.String("base_url", a.opts.BaseURL),
	)

	results := make([]model.PageAuditResult, 0, len(pages))
	var runErr error

	for _, p := range pages {
		if err := a.pace(ctx); err != nil {
			runErr = runError(ctx)
			break
		}

		res := a.AuditPage(ctx, p)
		if ctx.Err() != nil {
			// The page was cut short by the run deadline, not by its own
			// failure, so it is not reported.
			runErr = runError(ctx)
			break
		}

		results = append(results, res)
		for _, o := range a.opts.Observers {
			o.PageDone(res)
		}
	}

	if runErr == nil && allUnreachable(results) {
		runErr = ErrBaseUnreachable
	}

	run := report.Aggregate(id, results)
	run.StartedAt = started
	run.FinishedAt = time.Now()
	if runErr != nil {
		run.FatalError = runErr.Error()
	}

	notifyCtx := context.WithoutCancel(ctx)
	for _, o := range a.opts.Observers {
		o.RunDone(notifyCtx, run)
	}

	log.Logger.Info("audit run finished",
		zap.String("run_id", id),
		zap.Int("pages", len(run.Pages)),
		zap.Int("issues", run.TotalIssues),
		zap.Int("errored_pages", run.ErroredPages),
		zap.Bool("pass", run.Pass),
		zap.Duration("duration", run.FinishedAt.Sub(started)),
		zap.Error(runErr),
	)
	return run, runErr
}

func (a *Auditor) pace(ctx context.Context) error {
	if a.limiter == nil {
		return ctx.Err()
	}
	return a.limiter.Wait(ctx)
}

func runError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRunTimeout, ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrRunCancelled, ctx.Err())
}

// allUnreachable is true when there was at least one page and every page
// failed before the first byte rendered.
func allUnreachable(results []model.PageAuditResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Status != model.StatusErrored || r.FailedAt != model.StatusNavigating {
			return false
		}
	}
	return true
}

// AuditPage takes one page from NotStarted to Done or Errored.
func (a *Auditor) AuditPage(ctx context.Context, page config.Page) model.PageAuditResult {
	start := time.Now()
	url := util.JoinURL(a.opts.BaseURL, page.Path)
	res := model.PageAuditResult{
		Name:   page.Name,
		Path:   page.Path,
		URL:    url,
		Status: model.StatusNotStarted,
		Issues: []model.Issue{},
	}

	logger := log.Logger.With(zap.String("page", page.Name), zap.String("url", url))
	fail := func(err error) model.PageAuditResult {
		res.FailedAt = res.Status
		res.Status = model.StatusErrored
		res.Error = err.Error()
		res.Duration = time.Since(start)
		logger.Warn("page errored", zap.String("failed_at", string(res.FailedAt)), zap.Error(err))
		return res
	}

	res.Status = model.StatusNavigating
	if err := a.navigate(ctx, url); err != nil {
		return fail(err)
	}

	res.Status = model.StatusWaitingForReady
	if err := a.ready(ctx, page); err != nil {
		return fail(err)
	}

	res.Status = model.StatusExtractingSnapshot
	snaps, err := a.extract(ctx, page, url, logger)
	if err != nil {
		return fail(err)
	}
	res.Screenshot = a.screenshot(ctx, page, logger)

	res.Status = model.StatusEvaluatingRules
	if issues := a.engine.Evaluate(snaps); issues != nil {
		res.Issues = issues
	}
	res.IssueCount = len(res.Issues)
	res.Status = model.StatusDone
	res.Duration = time.Since(start)

	logger.Info("page audited",
		zap.Int("elements", len(snaps)),
		zap.Int("issues", res.IssueCount),
		zap.Duration("duration", res.Duration),
	)
	return res
}

func (a *Auditor) navigate(ctx context.Context, url string) error {
	nctx, cancel := context.WithTimeout(ctx, a.opts.NavTimeout)
	defer cancel()

	if err := a.renderer.Navigate(nctx, url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// ready waits for the page's ready selector, then applies the optional
// theme toggle and lets the page settle.
// Each renderer call gets its own ReadyTimeout deadline so a missing
// selector or toggle errors the page instead of eating the run deadline.
func (a *Auditor) ready(ctx context.Context, page config.Page) error {
	if err := a.waitFor(ctx, page.Ready); err != nil {
		return fmt.Errorf("wait for %q: %w", page.Ready, err)
	}
	if page.Toggle == "" {
		return nil
	}

	if err := a.click(ctx, page.Toggle); err != nil {
		return fmt.Errorf("theme toggle %q: %w", page.Toggle, err)
	}
	return sleep(ctx, a.opts.SettleDelay)
}

func (a *Auditor) waitFor(ctx context.Context, selector string) error {
	wctx, cancel := context.WithTimeout(ctx, a.opts.ReadyTimeout)
	defer cancel()

	return stepError(wctx, a.renderer.WaitFor(wctx, selector, a.opts.ReadyTimeout))
}

func (a *Auditor) click(ctx context.Context, target string) error {
	cctx, cancel := context.WithTimeout(ctx, a.opts.ReadyTimeout)
	defer cancel()

	return stepError(cctx, a.renderer.Click(cctx, target))
}

// stepError tags a bare context error from a step whose own deadline fired
// as a renderer timeout.
func stepError(stepCtx context.Context, err error) error {
	if err == nil || errors.Is(err, renderer.ErrTimeout) || errors.Is(err, renderer.ErrNotFound) {
		return err
	}
	if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", renderer.ErrTimeout, err)
	}
	return err
}

// extract reads snapshots. A stale page context gets exactly one fresh
// navigation before giving up.
func (a *Auditor) extract(ctx context.Context, page config.Page, url string, logger *zap.Logger) ([]model.StyleSnapshot, error) {
	root := page.Root
	if root == "" {
		root = a.opts.Root
	}
	filter := a.opts.Filter
	if f, ok := extractor.ByName(page.Filter); ok && page.Filter != "" {
		filter = f
	}
	tokens := a.engine.Tokens()

	snaps, err := a.extractOnce(ctx, root, filter, tokens)
	if err == nil || !errors.Is(err, extractor.ErrStaleContext) {
		return snaps, err
	}

	logger.Info("page context went stale, re-rendering", zap.Error(err))
	if err := a.navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("re-render after stale context: %w", err)
	}
	if err := a.ready(ctx, page); err != nil {
		return nil, fmt.Errorf("re-render after stale context: %w", err)
	}
	return a.extractOnce(ctx, root, filter, tokens)
}

func (a *Auditor) extractOnce(ctx context.Context, root string, filter extractor.Filter, tokens extractor.SurfaceResolver) ([]model.StyleSnapshot, error) {
	ectx, cancel := context.WithTimeout(ctx, a.opts.NavTimeout)
	defer cancel()

	snaps, err := extractor.Extract(ectx, a.renderer, root, filter, tokens)
	return snaps, stepError(ectx, err)
}

func (a *Auditor) screenshot(ctx context.Context, page config.Page, logger *zap.Logger) string {
	if a.opts.ScreenshotDir == "" {
		return ""
	}
	path := filepath.Join(a.opts.ScreenshotDir, util.Slug(page.Name)+".png")
	sctx, cancel := context.WithTimeout(ctx, a.opts.NavTimeout)
	defer cancel()

	if err := a.renderer.Screenshot(sctx, path, true); err != nil {
		logger.Warn("screenshot failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
