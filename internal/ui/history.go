package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"styleaudit/internal/history"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// PrintHistory lists stored runs, newest first.
func PrintHistory(w io.Writer, runs []history.Summary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no runs recorded"))
		return
	}

	cols := []lipgloss.Style{
		lipgloss.NewStyle().Width(10),
		lipgloss.NewStyle().Width(20),
		lipgloss.NewStyle().Width(7),
		lipgloss.NewStyle().Width(8),
		lipgloss.NewStyle().Width(9),
		lipgloss.NewStyle().Width(8),
	}
	row := func(cells ...string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = cols[i].Render(c)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, out...)
	}

	fmt.Fprintln(w, headerStyle.Render(row("RUN", "STARTED", "PAGES", "ISSUES", "ERRORED", "RESULT")))
	for _, r := range runs {
		result := okStyle.Render("PASS")
		if r.FatalError != "" {
			result = errStyle.Render("ABORT")
		} else if !r.Pass {
			result = errStyle.Render("FAIL")
		}
		fmt.Fprintln(w, row(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprint(r.Pages),
			fmt.Sprint(r.TotalIssues),
			fmt.Sprint(r.ErroredPages),
			result,
		))
	}
}
