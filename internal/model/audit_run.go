package model

import "time"

type PageStatus string

const (
	StatusNotStarted         PageStatus = "NotStarted"
	StatusNavigating         PageStatus = "Navigating"
	StatusWaitingForReady    PageStatus = "WaitingForReady"
	StatusExtractingSnapshot PageStatus = "ExtractingSnapshot"
	StatusEvaluatingRules    PageStatus = "EvaluatingRules"
	StatusDone               PageStatus = "Done"
	StatusErrored            PageStatus = "Errored"
)

type PageAuditResult struct {
	Name       string        `json:"name" yaml:"name"`
	Path       string        `json:"path" yaml:"path"`
	URL        string        `json:"url,omitempty" yaml:"url,omitempty"`
	Status     PageStatus    `json:"status" yaml:"status"`
	FailedAt   PageStatus    `json:"failed_at,omitempty" yaml:"failed_at,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Issues     []Issue       `json:"issues" yaml:"issues"`
	IssueCount int           `json:"issue_count" yaml:"issue_count"`
	Screenshot string        `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Clean is true only for pages that completed and found nothing. An errored
// page is never clean even though it carries no issues.
func (p PageAuditResult) Clean() bool {
	return p.Status == StatusDone && len(p.Issues) == 0
}

// CountBySeverity tallies the page's issues per severity.
func (p PageAuditResult) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, is := range p.Issues {
		counts[is.Severity]++
	}
	return counts
}

type AuditRun struct {
	ID           string            `json:"id" yaml:"id"`
	StartedAt    time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time         `json:"finished_at" yaml:"finished_at"`
	Pages        []PageAuditResult `json:"pages" yaml:"pages"`
	TotalIssues  int               `json:"total_issues" yaml:"total_issues"`
	ErroredPages int               `json:"errored_pages" yaml:"errored_pages"`
	Pass         bool              `json:"pass" yaml:"pass"`
	FatalError   string            `json:"fatal_error,omitempty" yaml:"fatal_error,omitempty"`
}
