package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics covers both stages: filing downloads and AI extraction.
type PipelineMetrics struct {
	registry *prometheus.Registry

	downloadTotal      *prometheus.CounterVec
	downloadDuration   *prometheus.HistogramVec
	downloadsInFlight  prometheus.Gauge
	extractionTotal    *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	llmRequestTotal    *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensTotal     *prometheus.CounterVec
}

func NewPipelineMetrics(stage string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	downloadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgar",
			Subsystem: "download",
			Name:      "filings_total",
			Help:      "Filings reaching a download terminal state, by outcome.",
		},
		[]string{"stage", "outcome"},
	)
	downloadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgar",
			Subsystem: "download",
			Name:      "filing_duration_seconds",
			Help:      "Per-filing download duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage", "outcome"},
	)
	downloadsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "edgar",
			Subsystem: "download",
			Name:      "filings_in_flight",
			Help:      "Filings currently claimed by download workers.",
			ConstLabels: prometheus.Labels{
				"stage": stage,
			},
		},
	)
	extractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgar",
			Subsystem: "extraction",
			Name:      "filings_total",
			Help:      "Filings reaching an extraction terminal state, by outcome.",
		},
		[]string{"stage", "outcome"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgar",
			Subsystem: "extraction",
			Name:      "filing_duration_seconds",
			Help:      "Per-filing extraction duration in seconds by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage", "outcome"},
	)
	llmRequestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgar",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "AI capability round-trips by operation and status.",
		},
		[]string{"stage", "operation", "status"},
	)
	llmRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgar",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "AI capability round-trip latency by operation.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage", "operation"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgar",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Billed tokens by operation and direction.",
		},
		[]string{"stage", "operation", "direction"},
	)

	registry.MustRegister(
		downloadTotal, downloadDuration, downloadsInFlight,
		extractionTotal, extractionDuration,
		llmRequestTotal, llmRequestDuration, llmTokensTotal,
	)

	return &PipelineMetrics{
		registry:           registry,
		downloadTotal:      downloadTotal,
		downloadDuration:   downloadDuration,
		downloadsInFlight:  downloadsInFlight,
		extractionTotal:    extractionTotal,
		extractionDuration: extractionDuration,
		llmRequestTotal:    llmRequestTotal,
		llmRequestDuration: llmRequestDuration,
		llmTokensTotal:     llmTokensTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDownload() {
	m.downloadsInFlight.Inc()
}

func (m *PipelineMetrics) FinishDownload(stage, outcome string, duration time.Duration) {
	m.downloadsInFlight.Dec()
	m.downloadTotal.WithLabelValues(stage, outcome).Inc()
	m.downloadDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

func (m *PipelineMetrics) FinishExtraction(stage, outcome string, duration time.Duration) {
	m.extractionTotal.WithLabelValues(stage, outcome).Inc()
	m.extractionDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveLLMRequest(stage, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmRequestTotal.WithLabelValues(stage, operation, status).Inc()
	m.llmRequestDuration.WithLabelValues(stage, operation).Observe(duration.Seconds())
}

func (m *PipelineMetrics) AddLLMTokens(stage, operation string, prompt, completion int) {
	if prompt > 0 {
		m.llmTokensTotal.WithLabelValues(stage, operation, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		m.llmTokensTotal.WithLabelValues(stage, operation, "completion").Add(float64(completion))
	}
}
