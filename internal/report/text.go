package report

import (
	"bytes"
	"fmt"

	"styleaudit/internal/model"
)

// TextRenderer writes one line per page and one indented line per issue.
type TextRenderer struct{}

func (TextRenderer) Render(run model.AuditRun) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "style audit %s\n", run.ID)
	for _, p := range run.Pages {
		switch {
		case p.Status == model.StatusErrored:
			fmt.Fprintf(&b, "ERROR  %s (%s): %s at %s\n", p.Name, p.Path, p.Error, p.FailedAt)
		case p.Clean():
			fmt.Fprintf(&b, "OK     %s (%s)\n", p.Name, p.Path)
		default:
			fmt.Fprintf(&b, "ISSUES %s (%s): %d\n", p.Name, p.Path, p.IssueCount)
		}
		for _, is := range p.Issues {
			fmt.Fprintf(&b, "  [%s] %s %s %s\n", is.Severity, is.Kind, is.Element, formatDetails(is.Details))
		}
	}

	verdict := "PASS"
	if !run.Pass {
		verdict = "FAIL"
	}
	fmt.Fprintf(&b, "pages=%d issues=%d errored=%d %s\n", len(run.Pages), run.TotalIssues, run.ErroredPages, verdict)
	if run.FatalError != "" {
		fmt.Fprintf(&b, "aborted: %s\n", run.FatalError)
	}
	return b.Bytes(), nil
}
