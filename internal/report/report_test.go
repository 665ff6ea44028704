package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"styleaudit/internal/model"
)

func issue(kind model.IssueKind, sev model.Severity, idx int) model.Issue {
	return model.Issue{Kind: kind, Severity: sev, Element: "div.card", ElementIndex: idx}
}

func samplePages() []model.PageAuditResult {
	return []model.PageAuditResult{
		{
			Name:   "Cards",
			Path:   "/components/cards/",
			Status: model.StatusDone,
			Issues: []model.Issue{
				issue(model.PoorHierarchy, model.SeverityMedium, 1),
				issue(model.HardcodedColor, model.SeverityCritical, 2),
				issue(model.NestedSameSurface, model.SeverityHigh, 3),
				issue(model.InvisibleText, model.SeverityCritical, 4),
			},
			IssueCount: 99,
		},
		{Name: "Home", Path: "/", Status: model.StatusDone},
		{
			Name:     "Dialogs",
			Path:     "/components/dialogs/",
			Status:   model.StatusErrored,
			FailedAt: model.StatusWaitingForReady,
			Error:    "ready selector #dialogs: timeout",
		},
	}
}

func TestAggregate(t *testing.T) {
	pages := samplePages()
	run := Aggregate("run-1", pages)

	if run.ID != "run-1" || len(run.Pages) != 3 {
		t.Fatalf("Aggregate() = %+v", run)
	}
	if run.TotalIssues != 4 {
		t.Errorf("TotalIssues = %d, want 4", run.TotalIssues)
	}
	if run.ErroredPages != 1 {
		t.Errorf("ErroredPages = %d, want 1", run.ErroredPages)
	}
	if run.Pass {
		t.Error("Pass should be false when issues exist")
	}
	if run.Pages[0].IssueCount != 4 {
		t.Errorf("IssueCount = %d, want recomputed 4", run.Pages[0].IssueCount)
	}

	wantOrder := []int{2, 4, 3, 1}
	for i, is := range run.Pages[0].Issues {
		if is.ElementIndex != wantOrder[i] {
			t.Fatalf("issue order = %+v, want element order %v", run.Pages[0].Issues, wantOrder)
		}
	}

	if pages[0].Issues[0].Kind != model.PoorHierarchy {
		t.Error("Aggregate() reordered the caller's slice")
	}
	for i, name := range []string{"Cards", "Home", "Dialogs"} {
		if run.Pages[i].Name != name {
			t.Errorf("page %d = %s, want %s", i, run.Pages[i].Name, name)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	run := Aggregate("empty", nil)
	if !run.Pass || run.TotalIssues != 0 || len(run.Pages) != 0 {
		t.Errorf("Aggregate(nil) = %+v", run)
	}
}

func TestAggregateTotalsMatchPages(t *testing.T) {
	run := Aggregate("r", samplePages())
	sum := 0
	for _, p := range run.Pages {
		if p.IssueCount != len(p.Issues) {
			t.Errorf("%s: IssueCount %d != len(Issues) %d", p.Name, p.IssueCount, len(p.Issues))
		}
		sum += p.IssueCount
	}
	if sum != run.TotalIssues {
		t.Errorf("TotalIssues = %d, sum of pages = %d", run.TotalIssues, sum)
	}
}

func TestExitCode(t *testing.T) {
	clean := Aggregate("c", []model.PageAuditResult{{Name: "Home", Status: model.StatusDone}})
	dirty := Aggregate("d", samplePages())
	errored := Aggregate("e", []model.PageAuditResult{
		{Name: "Home", Status: model.StatusDone},
		{Name: "Broken", Status: model.StatusErrored, FailedAt: model.StatusNavigating},
	})

	tests := []struct {
		name            string
		run             model.AuditRun
		fatal           error
		failOnPageError bool
		want            int
	}{
		{name: "Clean", run: clean, want: 0},
		{name: "Issues", run: dirty, want: 1},
		{name: "Fatal wins", run: dirty, fatal: errors.New("boom"), want: 2},
		{name: "Errored ignored by default", run: errored, want: 0},
		{name: "Errored with flag", run: errored, failOnPageError: true, want: 3},
		{name: "Issues beat errored", run: dirty, failOnPageError: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.run, tt.fatal, tt.failOnPageError); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMarkdownRenderer(t *testing.T) {
	run := Aggregate("run-42", samplePages())
	run.Pages[0].Screenshot = "screenshots/cards.png"

	out, err := MarkdownRenderer{}.Render(run)
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)

	for _, want := range []string{
		"# Visual Style Audit Report",
		"`run-42`",
		"## Cards",
		"- **Issues:** 4 (2 Critical, 1 High, 1 Medium)",
		"[screenshots/cards.png](screenshots/cards.png)",
		"| 1 | Critical | HardcodedColor | `div.card` |",
		"## Home",
		"- **Status:** Clean",
		"- **Status:** Errored at WaitingForReady",
		"- **Reason:** ready selector #dialogs: timeout",
		"- **Total Pages Tested:** 3",
		"- **Total Issues Found:** 4",
		"- **Errored Pages:** 1",
		"**FAIL**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestMarkdownPass(t *testing.T) {
	run := Aggregate("ok", []model.PageAuditResult{{Name: "Home", Path: "/", Status: model.StatusDone}})
	out, _ := MarkdownRenderer{}.Render(run)
	if !strings.Contains(string(out), "**PASS**") {
		t.Errorf("expected PASS banner:\n%s", out)
	}
}

func TestFormatDetails(t *testing.T) {
	got := formatDetails(map[string]string{"property": "background", "literal": "#ffffff"})
	if got != "literal=#ffffff; property=background" {
		t.Errorf("formatDetails() = %q", got)
	}
	if escapeCell("a|b") != `a\|b` {
		t.Errorf("escapeCell did not escape pipe")
	}
}

func TestStructuredRenderersKeepCounts(t *testing.T) {
	run := Aggregate("run-7", samplePages())

	js, err := JSONRenderer{}.Render(run)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON model.AuditRun
	if err := json.Unmarshal(js, &fromJSON); err != nil {
		t.Fatal(err)
	}

	ym, err := YAMLRenderer{}.Render(run)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(ym, &fromYAML); err != nil {
		t.Fatal(err)
	}

	if fromJSON.TotalIssues != run.TotalIssues || fromJSON.ErroredPages != run.ErroredPages {
		t.Errorf("json counts = %d/%d", fromJSON.TotalIssues, fromJSON.ErroredPages)
	}
	if fromYAML["total_issues"] != run.TotalIssues {
		t.Errorf("yaml total_issues = %v", fromYAML["total_issues"])
	}

	txt, _ := TextRenderer{}.Render(run)
	if !strings.Contains(string(txt), "pages=3 issues=4 errored=1 FAIL") {
		t.Errorf("text summary missing:\n%s", txt)
	}
}

func TestNewRenderer(t *testing.T) {
	for _, f := range []string{"", "markdown", "JSON", "yaml", "text"} {
		if _, err := NewRenderer(f); err != nil {
			t.Errorf("NewRenderer(%q) unexpected error: %v", f, err)
		}
	}
	if _, err := NewRenderer("pdf"); err == nil {
		t.Error("NewRenderer(pdf) expected error")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.md")
	run := Aggregate("w", samplePages())
	if err := WriteFile(run, path, MarkdownRenderer{}); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Total Issues Found") {
		t.Error("written report lacks summary")
	}
}
