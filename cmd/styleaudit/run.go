package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styleaudit/internal/config"
	"styleaudit/internal/extractor"
	"styleaudit/internal/history"
	"styleaudit/internal/log"
	"styleaudit/internal/metrics"
	"styleaudit/internal/model"
	"styleaudit/internal/renderer"
	"styleaudit/internal/report"
	"styleaudit/internal/rules"
	"styleaudit/internal/service"
	"styleaudit/internal/ui"
)

var pageFlags []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit the configured pages in a headless browser",
	Example: `  styleaudit run --pages pages.yaml
  styleaudit run --base-url http://localhost:5173 --page /=Home --page /components/cards/=Cards`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	runCmd.Flags().StringArrayVar(&pageFlags, "page", nil, "Page to audit as path or path=Name (repeatable)")
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	baseURL, pages, tokens, err := resolvePages(cfg, pageFlags)
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	r, err := renderer.LaunchRod(ctx, rodOptions(cfg))
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Logger.Warn("failed to close browser", zap.Error(err))
		}
	}()

	m := metrics.New()
	observers := []service.Observer{m}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		defer store.Close()
		observers = append(observers, store)
	}

	auditor := service.NewAuditor(r, rules.NewEngine(rules.Options{Tokens: &tokens, MinContrast: cfg.MinContrast}), service.Options{
		BaseURL:       baseURL,
		Root:          cfg.RootSelector,
		Filter:        filter,
		NavTimeout:    cfg.NavTimeout,
		ReadyTimeout:  cfg.ReadyTimeout,
		SettleDelay:   cfg.SettleDelay,
		ScreenshotDir: cfg.ScreenshotDir,
		PageRate:      cfg.PageRate,
		Observers:     observers,
	})

	run, runErr := auditor.Run(ctx, pages)
	finish(cfg, run, out, m)

	if code := report.ExitCode(run, runErr, cfg.FailOnPageError); code != 0 {
		return &exitError{code: code, err: runErr}
	}
	return nil
}

// finish writes the report, optional JSON dump and metrics, then prints the
// terminal summary. Write failures are logged; the verdict stands.
func finish(cfg *config.Config, run model.AuditRun, out report.Renderer, m *metrics.Audit) {
	if cfg.ReportPath != "" {
		if err := report.WriteFile(run, cfg.ReportPath, out); err != nil {
			log.Logger.Error("failed to write report", zap.String("path", cfg.ReportPath), zap.Error(err))
		} else {
			log.Logger.Info("report written", zap.String("path", cfg.ReportPath))
		}
	}
	if cfg.JSONReportPath != "" {
		if err := report.WriteFile(run, cfg.JSONReportPath, report.JSONRenderer{}); err != nil {
			log.Logger.Error("failed to write JSON report", zap.String("path", cfg.JSONReportPath), zap.Error(err))
		}
	}
	if cfg.MetricsFile != "" && m != nil {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Logger.Error("failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}
	ui.Print(os.Stdout, run)
}

// resolvePages picks the page list from --page flags, then the pages file,
// then the site root alone. Token overrides from the pages file and the
// tokens file are layered on the defaults in that order.
func resolvePages(cfg *config.Config, flags []string) (string, []config.Page, rules.TokenTable, error) {
	baseURL := cfg.BaseURL
	tokens := rules.DefaultTokens()
	var pages []config.Page

	if cfg.PagesFile != "" {
		f, err := config.LoadAuditFile(cfg.PagesFile)
		if err != nil {
			return "", nil, tokens, err
		}
		pages = f.Pages
		if f.BaseURL != "" && !rootFlagChanged("base-url") {
			baseURL = f.BaseURL
		}
		if f.Tokens != nil {
			tokens = tokens.Merge(*f.Tokens)
		}
	}

	if cfg.TokensFile != "" {
		t, err := config.LoadTokens(cfg.TokensFile)
		if err != nil {
			return "", nil, tokens, err
		}
		tokens = tokens.Merge(t)
	}

	if len(flags) > 0 {
		pages = pages[:0]
		for _, f := range flags {
			pages = append(pages, config.ParsePageFlag(f))
		}
	}
	if len(pages) == 0 {
		pages = []config.Page{config.ParsePageFlag("/")}
	}
	return baseURL, pages, tokens, nil
}

func rootFlagChanged(name string) bool {
	f := rootCmd.PersistentFlags().Lookup(name)
	return f != nil && f.Changed
}

func resolveFilter(name string) (extractor.Filter, error) {
	f, ok := extractor.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %q", config.ErrInvalidConfig, name)
	}
	return f, nil
}

func rodOptions(cfg *config.Config) renderer.RodOptions {
	return renderer.RodOptions{
		ControlURL:  cfg.ChromeURL,
		Bin:         cfg.ChromeBin,
		Headless:    cfg.Headless,
		ColorScheme: cfg.ColorScheme,
	}
}
