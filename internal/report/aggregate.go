// Package report folds page results into an AuditRun and renders it.
package report

import (
	"slices"

	"styleaudit/internal/model"
)

// Aggregate builds the run summary from page results in the order given.
// The input is not modified.
func Aggregate(id string, pages []model.PageAuditResult) model.AuditRun {
	run := model.AuditRun{
		ID:    id,
		Pages: make([]model.PageAuditResult, len(pages)),
	}

	for i, p := range pages {
		p.Issues = sortBySeverity(p.Issues)
		p.IssueCount = len(p.Issues)

		run.TotalIssues += p.IssueCount
		if p.Status == model.StatusErrored {
			run.ErroredPages++
		}
		run.Pages[i] = p
	}

	run.Pass = run.TotalIssues == 0
	return run
}

func sortBySeverity(issues []model.Issue) []model.Issue {
	out := slices.Clone(issues)
	if out == nil {
		out = []model.Issue{}
	}
	slices.SortStableFunc(out, func(a, b model.Issue) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	return out
}

// ExitCode maps a finished run to the process exit status.
//
//	0  no issues
//	1  issues found
//	2  the run itself failed
//	3  no issues, but pages errored and failOnPageError is set
func ExitCode(run model.AuditRun, fatal error, failOnPageError bool) int {
	switch {
	case fatal != nil:
		return 2
	case run.TotalIssues > 0:
		return 1
	case failOnPageError && run.ErroredPages > 0:
		return 3
	}
	return 0
}
