package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal       *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	processInFlight    prometheus.Gauge
	queueLag           *prometheus.HistogramVec
	extractionDuration *prometheus.HistogramVec
	complianceScore    prometheus.Histogram

	service string
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturx",
			Subsystem: "worker",
			Name:      "invoice_process_total",
			Help:      "Total processed invoices by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facturx",
			Subsystem: "worker",
			Name:      "invoice_process_duration_seconds",
			Help:      "Invoice processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facturx",
			Subsystem: "worker",
			Name:      "invoice_process_in_flight",
			Help:      "Number of in-flight invoice processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facturx",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between invoice creation and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facturx",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Extraction duration in seconds by summary source.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	complianceScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facturx",
			Subsystem: "extraction",
			Name:      "compliance_score",
			Help:      "Distribution of compliance scores on completed invoices.",
			Buckets:   []float64{0, 20, 40, 60, 70, 80, 90, 95, 100},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		processTotal,
		processDuration,
		processInFlight,
		queueLag,
		extractionDuration,
		complianceScore,
	)

	return &WorkerMetrics{
		registry:           registry,
		processTotal:       processTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		queueLag:           queueLag,
		extractionDuration: extractionDuration,
		complianceScore:    complianceScore,
		service:            service,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartInvoice() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishInvoice(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

// ObserveExtraction implements ports.PipelineMetrics.
func (m *WorkerMetrics) ObserveExtraction(source domain.SummarySource, seconds float64) {
	m.extractionDuration.WithLabelValues(m.service, string(source)).Observe(seconds)
}

// ObserveCompliance implements ports.PipelineMetrics.
func (m *WorkerMetrics) ObserveCompliance(score int) {
	m.complianceScore.Observe(float64(score))
}
