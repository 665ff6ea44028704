package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styleaudit/internal/config"
	"styleaudit/internal/log"
)

var Version = "dev"

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "styleaudit",
	Short: "Audit a design-system site for visual style violations",
	Long: `styleaudit renders pages in a headless browser, reads the computed styles of
every element and reports design-token violations: hard-coded colors, missing
color pairings, flat surface hierarchy, invisible text, nested identical
surfaces and low-contrast text tokens.

Exit status:
  0  no issues
  1  issues found
  2  the run failed (browser launch, unreachable site, timeout)
  3  no issues but pages errored (with --fail-on-page-error)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(".env", cmd.Flags())
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		config.AppConfig = cfg
		return nil
	},
}

func init() {
	log.InitLogger()

	f := rootCmd.PersistentFlags()
	f.String("base-url", "http://localhost:5173", "Base URL of the site under audit")
	f.String("pages", "", "YAML file listing pages (and optional token overrides)")
	f.String("tokens", "", "YAML file with token table overrides")
	f.Bool("headless", true, "Run the browser headless")
	f.String("chrome-bin", "", "Browser binary to launch")
	f.String("chrome-url", "", "DevTools URL of an already running browser")
	f.String("color-scheme", "", "Emulate prefers-color-scheme: light or dark")
	f.StringP("out", "o", "style-audit-report.md", "Report output path")
	f.StringP("format", "f", "markdown", "Report format: markdown, json, yaml or text")
	f.String("json-out", "", "Also write a JSON report to this path")
	f.String("screenshots", "screenshots", "Screenshot directory; empty disables screenshots")
	f.String("root", "body", "CSS selector of the subtree to audit")
	f.String("filter", "all", "Element filter: all, inline, surface or inline-or-surface")
	f.Float64("min-contrast", 0, "Flag text below this contrast ratio; 0 disables")
	f.Duration("nav-timeout", 0, "Per-page navigation timeout")
	f.Duration("ready-timeout", 0, "Per-page ready selector timeout")
	f.Duration("settle-delay", 0, "Wait after a theme toggle")
	f.Duration("run-timeout", 0, "Whole run timeout")
	f.Float64("page-rate", 0, "Maximum pages started per second")
	f.Bool("fail-on-page-error", false, "Exit 3 when pages errored but no issues were found")
	f.String("history-db", "", "SQLite file recording past runs")
	f.String("metrics-file", "", "Write Prometheus textfile metrics here after a run")

	rootCmd.Version = Version
	rootCmd.AddCommand(runCmd, checkCmd, serveCmd, historyCmd)
}

func main() {
	err := rootCmd.Execute()
	code := 0
	if err != nil {
		code = 2
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if ee == nil || ee.err != nil {
			log.Logger.Error("styleaudit failed", zap.Error(err))
		}
	}
	log.Sync()
	os.Exit(code)
}
