// Package metrics registers the processing counters exposed on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	filesProcessed *prometheus.CounterVec
	parseFailures  *prometheus.CounterVec
	pointsWritten  *prometheus.CounterVec
	runDuration    prometheus.Histogram
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		filesProcessed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spooker_files_processed_total",
				Help: "Number of input files parsed successfully, by detected format",
			},
			[]string{"format"},
		)

		parseFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spooker_parse_failures_total",
				Help: "Number of input files that failed to parse",
			},
			[]string{"reason"},
		)

		pointsWritten = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spooker_statistics_points_total",
				Help: "Number of statistics points written to output files, by direction",
			},
			[]string{"direction"},
		)

		runDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spooker_processing_duration_seconds",
				Help:    "End-to-end duration of one processing run",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		)

		_ = prometheus.Register(filesProcessed)
		_ = prometheus.Register(parseFailures)
		_ = prometheus.Register(pointsWritten)
		_ = prometheus.Register(runDuration)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// FileProcessed counts one successfully parsed file.
func FileProcessed(format string) {
	if filesProcessed != nil {
		filesProcessed.WithLabelValues(format).Inc()
	}
}

// ParseFailed counts one failed file.
func ParseFailed(reason string) {
	if parseFailures != nil {
		parseFailures.WithLabelValues(reason).Inc()
	}
}

// PointsWritten counts statistics points emitted for a direction.
func PointsWritten(direction string, n int) {
	if pointsWritten != nil && n > 0 {
		pointsWritten.WithLabelValues(direction).Add(float64(n))
	}
}

// ObserveRunDuration records one processing run's wall time in seconds.
func ObserveRunDuration(seconds float64) {
	if runDuration != nil {
		runDuration.Observe(seconds)
	}
}
