package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"styleaudit/internal/config"
	"styleaudit/internal/report"
	"styleaudit/internal/rules"
	"styleaudit/internal/service"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Audit static HTML files without a browser",
	Long: `check parses HTML fixtures and evaluates the rules against inline styles only.
Computed colors and layout are unknown, so it finds token misuse in markup
(hard-coded colors, missing pairings, restricted text tokens, nested surfaces)
rather than rendering problems.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(_ *cobra.Command, files []string) error {
	cfg := config.AppConfig

	_, _, tokens, err := resolvePages(cfg, nil)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	filter, err := resolveFilter(cfg.Filter)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	out, err := report.NewRenderer(cfg.ReportFormat)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	started := time.Now()
	engine := rules.NewEngine(rules.Options{Tokens: &tokens, MinContrast: cfg.MinContrast})
	results := service.AuditFiles(files, engine, cfg.RootSelector, filter)

	run := report.Aggregate(uuid.NewString(), results)
	run.StartedAt = started
	run.FinishedAt = time.Now()

	finish(cfg, run, out, nil)

	if code := report.ExitCode(run, nil, cfg.FailOnPageError); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
