package main

import (
	"os"

	"github.com/spf13/cobra"

	"styleaudit/internal/config"
	"styleaudit/internal/history"
	"styleaudit/internal/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent audit runs from the history database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.AppConfig
		if cfg.HistoryDB == "" {
			return &exitError{code: 2, err: errNoHistory}
		}

		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		ui.PrintHistory(os.Stdout, runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}
