package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetsieve_command_runs_total",
		Help: "Total CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetsieve_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"command"})
	FilterRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetsieve_filter_runs_total",
		Help: "Total filter passes",
	})
	RecordsIn = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetsieve_records_in_total",
		Help: "Records offered to the filter",
	})
	RecordsKept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetsieve_records_kept_total",
		Help: "Records that passed every filter",
	})
	RecordsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetsieve_records_skipped_total",
		Help: "Records skipped because they could not be evaluated",
	})
	QueryErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetsieve_query_errors_total",
		Help: "Search queries that failed to parse",
	})
	FilterDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tweetsieve_filter_duration_seconds",
		Help:    "Filter and sort duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	RenderFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetsieve_render_failures_total",
		Help: "Render errors and placeholder substitutions by format",
	}, []string{"format"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetsieve_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(CommandRuns, CommandErrors, FilterRuns, RecordsIn, RecordsKept,
		RecordsSkipped, QueryErrors, FilterDuration, RenderFailures, HTTPRequests)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveFilterDuration records a filter pass duration.
func ObserveFilterDuration(start time.Time) {
	FilterDuration.Observe(time.Since(start).Seconds())
}

func IncCommandRun(cmd string)       { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string)     { CommandErrors.WithLabelValues(cmd).Inc() }
func IncRenderFailure(format string) { RenderFailures.WithLabelValues(format).Inc() }
