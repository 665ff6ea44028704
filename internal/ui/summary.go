// Package ui prints the end-of-run summary to a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"styleaudit/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"})
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	severityStyles = map[model.Severity]lipgloss.Style{
		model.SeverityCritical: errStyle,
		model.SeverityHigh:     warnStyle,
		model.SeverityMedium:   dimStyle,
	}
)

// Summary renders the run as a boxed table of pages plus a verdict line.
func Summary(run model.AuditRun) string {
	nameWidth := len("Page")
	for _, p := range run.Pages {
		nameWidth = max(nameWidth, lipgloss.Width(p.Name))
	}

	rows := []string{titleStyle.Render("Style audit " + shortID(run.ID))}
	for _, p := range run.Pages {
		name := p.Name + strings.Repeat(" ", nameWidth-lipgloss.Width(p.Name))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, name, "  ", pageStatus(p)))
	}

	verdict := okStyle.Render("PASS")
	if !run.Pass {
		verdict = errStyle.Render("FAIL")
	}
	rows = append(rows, "",
		fmt.Sprintf("%s  pages %d  issues %d  errored %d",
			verdict, len(run.Pages), run.TotalIssues, run.ErroredPages))
	if run.FatalError != "" {
		rows = append(rows, errStyle.Render("aborted: ")+run.FatalError)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Print writes Summary followed by a newline.
func Print(w io.Writer, run model.AuditRun) {
	fmt.Fprintln(w, Summary(run))
}

func pageStatus(p model.PageAuditResult) string {
	switch {
	case p.Status == model.StatusErrored:
		return errStyle.Render("errored") + dimStyle.Render(" at "+string(p.FailedAt)+": "+p.Error)
	case p.Clean():
		return okStyle.Render("clean")
	}

	counts := p.CountBySeverity()
	parts := make([]string, 0, len(model.Severities))
	for _, s := range model.Severities {
		if counts[s] > 0 {
			parts = append(parts, severityStyles[s].Render(fmt.Sprintf("%d %s", counts[s], strings.ToLower(string(s)))))
		}
	}
	return strings.Join(parts, dimStyle.Render(", "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
