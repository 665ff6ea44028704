package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styleaudit/internal/api/v1/handler"
	"styleaudit/internal/api/v1/middleware"
	"styleaudit/internal/api/v1/router"
	"styleaudit/internal/cache"
	"styleaudit/internal/config"
	"styleaudit/internal/debug"
	"styleaudit/internal/history"
	"styleaudit/internal/log"
	"styleaudit/internal/metrics"
	"styleaudit/internal/renderer"
	"styleaudit/internal/rules"
	"styleaudit/internal/service"
)

var errNoHistory = errors.New("no history database configured (set --history-db or HISTORY_DB)")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve single-page audits over HTTP",
	Long: `serve keeps one browser open and audits pages on request:

  GET /styleaudit/api/v1/health
  GET /styleaudit/api/v1/audit?url=...&ready=...&toggle=...
  GET /styleaudit/api/v1/runs
  GET /styleaudit/api/v1/runs/{id}

Prometheus metrics are served on a separate listener.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("listen", ":8080", "API listen address")
	f.String("metrics-listen", ":8081", "Metrics listen address")
	f.String("pprof", "", "pprof listen address; empty disables")
	f.Duration("cache-ttl", 0, "How long audit results are cached")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	_, _, tokens, err := resolvePages(cfg, nil)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	filter, err := resolveFilter(cfg.Filter)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := renderer.LaunchRod(ctx, rodOptions(cfg))
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer r.Close()

	m := metrics.New()
	observers := []service.Observer{m}
	var hist handler.HistoryReader
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		defer store.Close()
		observers = append(observers, store)
		hist = store
	}

	auditor := service.NewAuditor(r, rules.NewEngine(rules.Options{Tokens: &tokens, MinContrast: cfg.MinContrast}), service.Options{
		Root:          cfg.RootSelector,
		Filter:        filter,
		NavTimeout:    cfg.NavTimeout,
		ReadyTimeout:  cfg.ReadyTimeout,
		SettleDelay:   cfg.SettleDelay,
		ScreenshotDir: cfg.ScreenshotDir,
		Observers:     observers,
	})

	cache.Init(cfg.CacheTTL)

	limiter := middleware.NewRateLimiter(1, 3)
	done := make(chan struct{})
	defer close(done)
	go limiter.Run(done)

	server := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: router.New(router.Options{
			Handler:       handler.New(auditor, hist, cfg.NavTimeout+cfg.ReadyTimeout+cfg.SettleDelay+time.Minute),
			RateLimiter:   limiter,
			BasicAuthUser: cfg.BasicAuthUser,
			BasicAuthPass: cfg.BasicAuthPass,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           router.NewMetricsRouter(m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		log.Logger.Info("Server started", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		log.Logger.Info("Metrics server started", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	debug.StartPprof(cfg.PprofAddr)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Logger.Info("Shutting down server gracefully")
	case serveErr = <-errc:
		log.Logger.Error("Server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Logger.Error("Metrics server forced to shutdown", zap.Error(err))
	}

	if serveErr != nil {
		return &exitError{code: 2, err: serveErr}
	}
	log.Logger.Info("Server exited successfully")
	return nil
}
