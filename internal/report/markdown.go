package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"styleaudit/internal/model"
)

type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(run model.AuditRun) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString("# Visual Style Audit Report\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", run.ID)
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if !run.FinishedAt.IsZero() && !run.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Duration:** %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	b.WriteString("\n")

	for _, p := range run.Pages {
		writePage(&b, p)
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Total Pages Tested:** %d\n", len(run.Pages))
	fmt.Fprintf(&b, "- **Total Issues Found:** %d\n", run.TotalIssues)
	fmt.Fprintf(&b, "- **Errored Pages:** %d\n", run.ErroredPages)
	if run.FatalError != "" {
		fmt.Fprintf(&b, "- **Run Aborted:** %s\n", run.FatalError)
	}
	b.WriteString("\n")

	if run.Pass {
		b.WriteString("**PASS**: no style issues found.\n")
	} else {
		b.WriteString("**FAIL**: style issues found.\n")
	}
	return b.Bytes(), nil
}

func writePage(b *bytes.Buffer, p model.PageAuditResult) {
	fmt.Fprintf(b, "## %s\n\n", p.Name)
	fmt.Fprintf(b, "- **Path:** `%s`\n", p.Path)

	switch {
	case p.Status == model.StatusErrored:
		fmt.Fprintf(b, "- **Status:** Errored at %s\n", p.FailedAt)
		fmt.Fprintf(b, "- **Reason:** %s\n\n", p.Error)
		return
	case p.Clean():
		b.WriteString("- **Status:** Clean\n")
	default:
		fmt.Fprintf(b, "- **Status:** %s\n", p.Status)
	}

	counts := p.CountBySeverity()
	fmt.Fprintf(b, "- **Issues:** %d", p.IssueCount)
	if p.IssueCount > 0 {
		parts := make([]string, 0, len(model.Severities))
		for _, s := range model.Severities {
			if counts[s] > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
			}
		}
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	if p.Screenshot != "" {
		fmt.Fprintf(b, "- **Screenshot:** [%s](%s)\n", p.Screenshot, p.Screenshot)
	}
	b.WriteString("\n")

	if len(p.Issues) == 0 {
		return
	}
	b.WriteString("| # | Severity | Kind | Element | Details |\n")
	b.WriteString("|---|----------|------|---------|---------|\n")
	for i, is := range p.Issues {
		fmt.Fprintf(b, "| %d | %s | %s | `%s` | %s |\n",
			i+1, is.Severity, is.Kind, escapeCell(is.Element), escapeCell(formatDetails(is.Details)))
	}
	b.WriteString("\n")
}

// formatDetails renders details as key=value pairs in key order.
func formatDetails(d map[string]string) string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + d[k]
	}
	return strings.Join(parts, "; ")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
