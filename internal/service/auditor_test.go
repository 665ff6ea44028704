package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"styleaudit/internal/config"
	"styleaudit/internal/extractor"
	"styleaudit/internal/log"
	"styleaudit/internal/model"
	"styleaudit/internal/renderer"
	"styleaudit/internal/rules"
)

func TestMain(m *testing.M) {
	log.Nop()
	os.Exit(m.Run())
}

const base = "http://design.test"

type fakeRenderer struct {
	mu sync.Mutex

	docs     map[string]string
	navErr   map[string]error
	readyErr map[string]error
	clickErr error
	shotErr  error
	// hang makes WaitFor for these selectors block until ctx ends.
	hang      map[string]bool
	hangClick bool
	stale     map[string]int
	onNav     func(ctx context.Context, url string) error
	current   string
	navs      []string
	clicks    []string
	shots     []string
	evaluated int
}

func newFake() *fakeRenderer {
	return &fakeRenderer{
		docs:     map[string]string{},
		navErr:   map[string]error{},
		readyErr: map[string]error{},
		stale:    map[string]int{},
		hang:     map[string]bool{},
	}
}

func (f *fakeRenderer) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.navs = append(f.navs, url)
	hook := f.onNav
	err := f.navErr[url]
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, url); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.current = url
	f.mu.Unlock()
	return nil
}

func (f *fakeRenderer) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	f.mu.Lock()
	hang := f.hang[selector]
	err := f.readyErr[selector]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeRenderer) Evaluate(_ context.Context, _ string, out any, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluated++
	if f.stale[f.current] > 0 {
		f.stale[f.current]--
		return fmt.Errorf("%w: Execution context was destroyed", renderer.ErrStaleContext)
	}
	doc, ok := f.docs[f.current]
	if !ok {
		doc = `{"found":false,"elements":[]}`
	}
	return json.Unmarshal([]byte(doc), out)
}

func (f *fakeRenderer) Screenshot(_ context.Context, path string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shotErr != nil {
		return f.shotErr
	}
	f.shots = append(f.shots, path)
	return nil
}

func (f *fakeRenderer) Click(ctx context.Context, target string) error {
	f.mu.Lock()
	hang := f.hangClick
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clicks = append(f.clicks, target)
	return nil
}

func (f *fakeRenderer) Close() error { return nil }

type element struct {
	I       int      `json:"i"`
	P       int      `json:"p"`
	Tag     string   `json:"tag"`
	Classes []string `json:"classes"`
	Style   string   `json:"style"`
	Bg      string   `json:"bg"`
	Fg      string   `json:"fg"`
	Pbg     string   `json:"pbg"`
	W       float64  `json:"w"`
	H       float64  `json:"h"`
}

func doc(elements ...element) string {
	data, err := json.Marshal(map[string]any{"found": true, "elements": elements})
	if err != nil {
		panic(err)
	}
	return string(data)
}

func body() element {
	return element{I: 0, P: -1, Tag: "body", Bg: "rgb(240, 240, 240)", Fg: "rgb(0, 0, 0)", W: 1280, H: 800}
}

func cleanDoc() string {
	return doc(body(), element{
		I: 1, P: 0, Tag: "p", Bg: "rgba(0, 0, 0, 0)", Fg: "rgb(20, 20, 20)", Pbg: "rgb(240, 240, 240)", W: 300, H: 20,
	})
}

func hardcodedDoc() string {
	return doc(body(), element{
		I: 1, P: 0, Tag: "div", Classes: []string{"card"},
		Style: "background: #ffffff; color: var(--token-x)",
		Bg:    "rgb(255, 255, 255)", Fg: "rgb(30, 30, 30)", Pbg: "rgb(240, 240, 240)", W: 300, H: 200,
	})
}

func page(path, name, ready string) config.Page {
	return config.Page{Path: path, Name: name, Ready: ready}
}

func newAuditor(f *fakeRenderer, opts Options) *Auditor {
	opts.BaseURL = base
	return NewAuditor(f, rules.NewEngine(rules.Options{}), opts)
}

type recorder struct {
	pages []model.PageAuditResult
	runs  []model.AuditRun
}

func (r *recorder) PageDone(p model.PageAuditResult)              { r.pages = append(r.pages, p) }
func (r *recorder) RunDone(_ context.Context, run model.AuditRun) { r.runs = append(r.runs, run) }

func TestRunReadyTimeoutErrorsOnlyThatPage(t *testing.T) {
	f := newFake()
	f.docs[base+"/"] = cleanDoc()
	f.docs[base+"/cards"] = cleanDoc()
	f.docs[base+"/buttons"] = hardcodedDoc()
	f.readyErr["#cards"] = fmt.Errorf("%w: wait for \"#cards\"", renderer.ErrTimeout)

	rec := &recorder{}
	a := newAuditor(f, Options{Observers: []Observer{rec}})

	run, err := a.Run(context.Background(), []config.Page{
		page("/", "Home", "load"),
		page("/cards", "Cards", "#cards"),
		page("/buttons", "Buttons", "load"),
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if len(run.Pages) != 3 {
		t.Fatalf("Run() pages = %d, want 3", len(run.Pages))
	}
	if !run.Pages[0].Clean() {
		t.Errorf("Home should be clean: %+v", run.Pages[0])
	}

	cards := run.Pages[1]
	if cards.Status != model.StatusErrored || cards.FailedAt != model.StatusWaitingForReady {
		t.Errorf("Cards = %s at %s, want Errored at WaitingForReady", cards.Status, cards.FailedAt)
	}
	if cards.IssueCount != 0 || !strings.Contains(cards.Error, "#cards") {
		t.Errorf("Cards = %+v", cards)
	}

	buttons := run.Pages[2]
	if buttons.IssueCount != 1 || buttons.Issues[0].Kind != model.HardcodedColor ||
		buttons.Issues[0].Severity != model.SeverityCritical {
		t.Errorf("Buttons issues = %+v, want one Critical HardcodedColor", buttons.Issues)
	}

	if run.TotalIssues != 1 || run.ErroredPages != 1 || run.Pass {
		t.Errorf("run totals = issues %d errored %d pass %v", run.TotalIssues, run.ErroredPages, run.Pass)
	}
	if run.ID == "" || run.FinishedAt.Before(run.StartedAt) {
		t.Errorf("run metadata = %q %v %v", run.ID, run.StartedAt, run.FinishedAt)
	}
	if len(rec.pages) != 3 || len(rec.runs) != 1 {
		t.Errorf("observer saw %d pages, %d runs", len(rec.pages), len(rec.runs))
	}
}

func TestAuditPageToggle(t *testing.T) {
	f := newFake()
	f.docs[base+"/dark"] = cleanDoc()
	a := newAuditor(f, Options{SettleDelay: time.Millisecond})

	p := page("/dark", "Dark", "load")
	p.Toggle = "Dark mode"
	res := a.AuditPage(context.Background(), p)

	if res.Status != model.StatusDone {
		t.Fatalf("AuditPage() = %+v", res)
	}
	if len(f.clicks) != 1 || f.clicks[0] != "Dark mode" {
		t.Errorf("clicks = %v", f.clicks)
	}
}

func TestAuditPageToggleFailure(t *testing.T) {
	f := newFake()
	f.docs[base+"/dark"] = cleanDoc()
	f.clickErr = fmt.Errorf("%w: %q", renderer.ErrNotFound, "Dark mode")
	a := newAuditor(f, Options{})

	p := page("/dark", "Dark", "load")
	p.Toggle = "Dark mode"
	res := a.AuditPage(context.Background(), p)

	if res.Status != model.StatusErrored || res.FailedAt != model.StatusWaitingForReady {
		t.Errorf("AuditPage() = %s at %s, want Errored at WaitingForReady", res.Status, res.FailedAt)
	}
}

func TestRunBlockingStepsErrorOnlyTheirPage(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeRenderer, first *config.Page)
	}{
		{
			name:  "Ready selector never appears",
			setup: func(f *fakeRenderer, first *config.Page) { f.hang["#never"] = true; first.Ready = "#never" },
		},
		{
			name:  "Theme toggle never found",
			setup: func(f *fakeRenderer, first *config.Page) { f.hangClick = true; first.Toggle = "Dark mode" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.docs[base+"/a"] = cleanDoc()
			f.docs[base+"/b"] = hardcodedDoc()

			first := page("/a", "A", "load")
			tt.setup(f, &first)

			a := newAuditor(f, Options{ReadyTimeout: 50 * time.Millisecond, NavTimeout: 50 * time.Millisecond})
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			run, err := a.Run(ctx, []config.Page{first, page("/b", "B", "load")})
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}
			if run.FatalError != "" {
				t.Errorf("FatalError = %q, want empty", run.FatalError)
			}
			if len(run.Pages) != 2 {
				t.Fatalf("Run() pages = %d, want 2", len(run.Pages))
			}

			var gotA, gotB model.PageAuditResult
			for _, p := range run.Pages {
				switch p.Name {
				case "A":
					gotA = p
				case "B":
					gotB = p
				}
			}
			if gotA.Status != model.StatusErrored || gotA.FailedAt != model.StatusWaitingForReady {
				t.Errorf("A = %s at %s, want Errored at WaitingForReady", gotA.Status, gotA.FailedAt)
			}
			if gotA.IssueCount != 0 {
				t.Errorf("A issues = %d, want 0", gotA.IssueCount)
			}
			if !strings.Contains(gotA.Error, renderer.ErrTimeout.Error()) {
				t.Errorf("A error = %q, want renderer timeout", gotA.Error)
			}
			if gotB.Status != model.StatusDone || gotB.IssueCount != 1 {
				t.Errorf("B = %s with %d issues, want Done with 1", gotB.Status, gotB.IssueCount)
			}
		})
	}
}

func TestAuditPageStaleContext(t *testing.T) {
	tests := []struct {
		name       string
		staleReads int
		wantStatus model.PageStatus
		wantNavs   int
	}{
		{name: "Recovers after one re-render", staleReads: 1, wantStatus: model.StatusDone, wantNavs: 2},
		{name: "Gives up after second stale read", staleReads: 2, wantStatus: model.StatusErrored, wantNavs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.docs[base+"/"] = hardcodedDoc()
			f.stale[base+"/"] = tt.staleReads
			a := newAuditor(f, Options{})

			res := a.AuditPage(context.Background(), page("/", "Home", "load"))

			if res.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s (%s)", res.Status, tt.wantStatus, res.Error)
			}
			if len(f.navs) != tt.wantNavs {
				t.Errorf("navigations = %d, want %d", len(f.navs), tt.wantNavs)
			}
			if tt.wantStatus == model.StatusErrored && res.FailedAt != model.StatusExtractingSnapshot {
				t.Errorf("FailedAt = %s, want ExtractingSnapshot", res.FailedAt)
			}
			if tt.wantStatus == model.StatusDone && res.IssueCount != 1 {
				t.Errorf("IssueCount = %d, want 1", res.IssueCount)
			}
		})
	}
}

func TestAuditPageRootNotFound(t *testing.T) {
	f := newFake()
	a := newAuditor(f, Options{})

	res := a.AuditPage(context.Background(), page("/missing", "Missing", "load"))
	if res.Status != model.StatusErrored || res.FailedAt != model.StatusExtractingSnapshot {
		t.Errorf("AuditPage() = %s at %s", res.Status, res.FailedAt)
	}
	if !strings.Contains(res.Error, "root element not found") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestAuditPageScreenshots(t *testing.T) {
	dir := t.TempDir()

	f := newFake()
	f.docs[base+"/"] = cleanDoc()
	a := newAuditor(f, Options{ScreenshotDir: dir})

	res := a.AuditPage(context.Background(), page("/", "Home Page", "load"))
	want := filepath.Join(dir, "home-page.png")
	if res.Screenshot != want || len(f.shots) != 1 {
		t.Errorf("Screenshot = %q (shots %v), want %q", res.Screenshot, f.shots, want)
	}

	f.shotErr = errors.New("capture failed")
	res = a.AuditPage(context.Background(), page("/", "Home Page", "load"))
	if res.Status != model.StatusDone || res.Screenshot != "" {
		t.Errorf("failed screenshot should not fail the page: %+v", res)
	}
}

func TestRunBaseUnreachable(t *testing.T) {
	f := newFake()
	f.navErr[base+"/"] = errors.New("net::ERR_CONNECTION_REFUSED")
	f.navErr[base+"/cards"] = errors.New("net::ERR_CONNECTION_REFUSED")
	a := newAuditor(f, Options{})

	run, err := a.Run(context.Background(), []config.Page{
		page("/", "Home", "load"),
		page("/cards", "Cards", "load"),
	})
	if !errors.Is(err, ErrBaseUnreachable) {
		t.Fatalf("Run() error = %v, want ErrBaseUnreachable", err)
	}
	if run.ErroredPages != 2 || run.FatalError == "" {
		t.Errorf("run = %+v", run)
	}
	for _, p := range run.Pages {
		if p.FailedAt != model.StatusNavigating {
			t.Errorf("%s FailedAt = %s", p.Name, p.FailedAt)
		}
	}
}

func TestRunTimeoutKeepsFinishedPages(t *testing.T) {
	f := newFake()
	f.docs[base+"/"] = hardcodedDoc()
	f.onNav = func(ctx context.Context, url string) error {
		if url == base+"/slow" {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	a := newAuditor(f, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	run, err := a.Run(ctx, []config.Page{
		page("/", "Home", "load"),
		page("/slow", "Slow", "load"),
		page("/never", "Never", "load"),
	})
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("Run() error = %v, want ErrRunTimeout", err)
	}
	if len(run.Pages) != 1 || run.Pages[0].Name != "Home" {
		t.Fatalf("Run() pages = %+v, want only Home", run.Pages)
	}
	if run.TotalIssues != 1 || run.FatalError == "" {
		t.Errorf("run = issues %d fatal %q", run.TotalIssues, run.FatalError)
	}
}

func TestAuditPagePerPageFilter(t *testing.T) {
	f := newFake()
	f.docs[base+"/"] = hardcodedDoc()
	a := newAuditor(f, Options{})

	p := page("/", "Home", "load")
	p.Filter = "surface"
	res := a.AuditPage(context.Background(), p)
	if res.Status != model.StatusDone || res.IssueCount != 0 {
		t.Errorf("surface-only filter should skip the card: %+v", res)
	}
}

func TestAuditHTML(t *testing.T) {
	engine := rules.NewEngine(rules.Options{})
	markup := `<html><body style="background:#f0f0f0">
		<div class="card" style="background: #ffffff; color: var(--token-x)">hi</div>
	</body></html>`

	res := AuditHTML("fixture", strings.NewReader(markup), engine, "", extractor.All)
	if res.Status != model.StatusDone {
		t.Fatalf("AuditHTML() = %+v", res)
	}
	var hardcoded int
	for _, is := range res.Issues {
		if is.Kind == model.HardcodedColor {
			hardcoded++
		}
	}
	if hardcoded != 2 {
		t.Errorf("HardcodedColor issues = %d, want 2 (body and card): %+v", hardcoded, res.Issues)
	}
}

func TestAuditFilesMissing(t *testing.T) {
	results := AuditFiles([]string{filepath.Join(t.TempDir(), "nope.html")}, rules.NewEngine(rules.Options{}), "", nil)
	if len(results) != 1 || results[0].Status != model.StatusErrored || results[0].Name != "nope" {
		t.Errorf("AuditFiles() = %+v", results)
	}
}
