package infra

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// Registry holds every collector owned by the application. It is kept apart
	// from the default registry so textfile exports only contain our series.
	Registry = prometheus.NewRegistry()

	// Collection metrics
	ReportFilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amplify_report_files_total",
		Help: "Total number of per-process report files read",
	})
	ReportLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_report_lines_total",
		Help: "Total number of report lines by parse result",
	}, []string{"result"})
	CollectDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "amplify_collect_duration_seconds",
		Help:    "Duration of a full collection pass in seconds",
		Buckets: prometheus.DefBuckets,
	})
	AmplificationRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "amplify_amplification_ratio",
		Help: "PCDN / CDN ratio of the last reported run",
	})

	// Persistence metrics
	RunsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_runs_published_total",
		Help: "Total number of runs written to a sink",
	}, []string{"sink"})
	RunPublishErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "amplify_run_publish_errors_total",
		Help: "Total number of failed run writes by sink",
	}, []string{"sink"})
	DbWriteDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "amplify_db_write_duration_seconds",
		Help:    "Duration of database statements in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Transport metrics
	HttpRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amplify_http_requests_total",
		Help: "Total number of HTTP and gRPC requests",
	})
	HttpRequestErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "amplify_http_request_errors_total",
		Help: "Total number of HTTP and gRPC request errors",
	})
	ProcessingDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "amplify_processing_duration_seconds",
		Help:    "Duration of request processing in seconds",
		Buckets: prometheus.DefBuckets,
	})

	registerOnce sync.Once
)

func init() {
	InitMetrics()
}

// InitMetrics registers all collectors used by the application.
func InitMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			ReportFilesTotal,
			ReportLinesTotal,
			CollectDurationSeconds,
			AmplificationRatio,
			RunsPublishedTotal,
			RunPublishErrorsTotal,
			DbWriteDurationSeconds,
			HttpRequestsTotal,
			HttpRequestErrorsTotal,
			ProcessingDurationSeconds,
		)
	})
}

// Handler returns an HTTP handler that exposes the application registry.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	InitMetrics()
	return prometheus.WriteToTextfile(path, Registry)
}

// HTTPMiddleware instruments HTTP handlers with request/latency metrics.
func HTTPMiddleware() func(http.Handler) http.Handler {
	InitMetrics()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r == nil {
				HttpRequestErrorsTotal.Inc()
				http.Error(w, "invalid request", http.StatusBadRequest)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			defer func() {
				ProcessingDurationSeconds.Observe(time.Since(start).Seconds())
				HttpRequestsTotal.Inc()

				if recorder.Status() >= http.StatusBadRequest {
					HttpRequestErrorsTotal.Inc()
				}
			}()

			next.ServeHTTP(recorder, r)
		})
	}
}

// GRPCUnaryInterceptor instruments gRPC unary handlers with request/latency metrics.
func GRPCUnaryInterceptor() grpc.UnaryServerInterceptor {
	InitMetrics()
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()

		defer func() {
			ProcessingDurationSeconds.Observe(time.Since(start).Seconds())
			HttpRequestsTotal.Inc()

			if status.Code(err) != codes.OK {
				HttpRequestErrorsTotal.Inc()
			}
		}()

		return handler(ctx, req)
	}
}

func IncReportFiles() {
	ReportFilesTotal.Inc()
}

func IncParsedLines() {
	ReportLinesTotal.WithLabelValues("parsed").Inc()
}

func IncSkippedLines() {
	ReportLinesTotal.WithLabelValues("skipped").Inc()
}

func ObserveCollect(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	CollectDurationSeconds.Observe(duration.Seconds())
}

func SetAmplification(ratio float64) {
	AmplificationRatio.Set(ratio)
}

// RecordPublish tracks the outcome of writing a run to sink.
func RecordPublish(sink string, err error) {
	if err != nil {
		RunPublishErrorsTotal.WithLabelValues(sink).Inc()
		return
	}
	RunsPublishedTotal.WithLabelValues(sink).Inc()
}

func ObserveDBWrite(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	DbWriteDurationSeconds.Observe(duration.Seconds())
}

// statusRecorder captures the response status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Status() int {
	return r.status
}
