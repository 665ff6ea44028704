// Package metrics exposes audit results as Prometheus series.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"styleaudit/internal/model"
)

// Audit holds the audit series on a private registry, so a run can write a
// textfile without picking up unrelated process collectors.
type Audit struct {
	registry *prometheus.Registry

	pagesTotal    *prometheus.CounterVec
	issuesTotal   *prometheus.CounterVec
	pageDuration  prometheus.Histogram
	lastRunIssues prometheus.Gauge
	lastRunPass   prometheus.Gauge
	lastRunTime   prometheus.Gauge
}

func New() *Audit {
	a := &Audit{
		registry: prometheus.NewRegistry(),
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "styleaudit_pages_total",
				Help: "Pages audited, by final status",
			},
			[]string{"status"},
		),
		issuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "styleaudit_issues_total",
				Help: "Style issues found, by kind and severity",
			},
			[]string{"kind", "severity"},
		),
		pageDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "styleaudit_page_duration_seconds",
				Help:    "Time spent auditing one page",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
		),
		lastRunIssues: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "styleaudit_last_run_issues",
			Help: "Total issues of the most recent run",
		}),
		lastRunPass: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "styleaudit_last_run_pass",
			Help: "1 when the most recent run found no issues",
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "styleaudit_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished",
		}),
	}

	a.registry.MustRegister(
		a.pagesTotal,
		a.issuesTotal,
		a.pageDuration,
		a.lastRunIssues,
		a.lastRunPass,
		a.lastRunTime,
	)
	return a
}

func (a *Audit) Registry() *prometheus.Registry {
	return a.registry
}

// PageDone records one finished page.
func (a *Audit) PageDone(p model.PageAuditResult) {
	a.pagesTotal.WithLabelValues(string(p.Status)).Inc()
	a.pageDuration.Observe(p.Duration.Seconds())
	for _, is := range p.Issues {
		a.issuesTotal.WithLabelValues(string(is.Kind), string(is.Severity)).Inc()
	}
}

// RunDone records the run summary.
func (a *Audit) RunDone(_ context.Context, run model.AuditRun) {
	a.lastRunIssues.Set(float64(run.TotalIssues))
	if run.Pass {
		a.lastRunPass.Set(1)
	} else {
		a.lastRunPass.Set(0)
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	a.lastRunTime.Set(float64(finished.Unix()))
}

// WriteTextfile writes the current series in the node_exporter textfile
// format.
func (a *Audit) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, a.registry)
}

// Handler serves the audit series together with the process and Go
// runtime collectors of the default registry.
func (a *Audit) Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{a.registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)
}
