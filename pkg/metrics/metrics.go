package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

const namespace = "aegis"

// Recorder implements contracts.RunRecorder using Prometheus
// 레지스트리를 인스턴스별로 소유 (테스트에서 중복 등록 없음)
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	stagesTotal   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	cacheRequests *prometheus.CounterVec
}

// New creates a new Prometheus recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_runs_total",
				Help:      "Total number of completed analysis runs by tier",
			},
			[]string{"tier"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_run_duration_seconds",
				Help:      "Duration of analysis runs in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		stagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_results_total",
				Help:      "Stage outcomes by availability",
			},
			[]string{"stage", "available"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_errors_total",
				Help:      "Contract violations by stage",
			},
			[]string{"stage"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_requests_total",
				Help:      "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
	}

	// 에러 카운터는 0부터 노출 (rate() 계산용)
	for _, stage := range contracts.AllStages() {
		r.errorsTotal.WithLabelValues(stage.String())
	}

	return r
}

// RecordRun records a completed run
func (r *Recorder) RecordRun(tier contracts.Tier, duration time.Duration) {
	r.runsTotal.WithLabelValues(string(tier)).Inc()
	r.runDuration.Observe(duration.Seconds())
}

// RecordStage records whether a stage produced an available result
func (r *Recorder) RecordStage(stage contracts.Stage, available bool) {
	r.stagesTotal.WithLabelValues(stage.String(), strconv.FormatBool(available)).Inc()
}

// RecordError records a stage contract violation
func (r *Recorder) RecordError(stage contracts.Stage) {
	r.errorsTotal.WithLabelValues(stage.String()).Inc()
}

// RecordRequest records one HTTP request (route = templated path)
func (r *Recorder) RecordRequest(route, method string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordCache records a snapshot cache hit or miss
func (r *Recorder) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler exposes the registry for scraping
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
