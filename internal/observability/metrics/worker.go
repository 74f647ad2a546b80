package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics instruments the compliance worker: per-invoice pipeline runs
// and batch-level reporting, on a private registry.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	invoiceTotal    *prometheus.CounterVec
	invoiceDuration *prometheus.HistogramVec
	invoiceInFlight prometheus.Gauge
	queueLag        prometheus.Histogram
	batchTotal      *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	invoiceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vcc",
			Subsystem: "worker",
			Name:      "invoice_process_total",
			Help:      "Processed invoices by final status.",
		},
		[]string{"service", "status"},
	)
	invoiceDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vcc",
			Subsystem: "worker",
			Name:      "invoice_process_duration_seconds",
			Help:      "Per-invoice pipeline duration in seconds by final status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	invoiceInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vcc",
			Subsystem: "worker",
			Name:      "invoice_process_in_flight",
			Help:      "Invoices currently inside the pipeline.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vcc",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vcc",
			Subsystem: "worker",
			Name:      "batch_process_total",
			Help:      "Processed batches by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(invoiceTotal, invoiceDuration, invoiceInFlight, queueLag, batchTotal)

	return &WorkerMetrics{
		registry:        registry,
		invoiceTotal:    invoiceTotal,
		invoiceDuration: invoiceDuration,
		invoiceInFlight: invoiceInFlight,
		queueLag:        queueLag,
		batchTotal:      batchTotal,
		service:         service,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartInvoice() {
	m.invoiceInFlight.Inc()
}

func (m *WorkerMetrics) FinishInvoice(status string, elapsed time.Duration) {
	m.invoiceInFlight.Dec()
	m.invoiceTotal.WithLabelValues(m.service, status).Inc()
	m.invoiceDuration.WithLabelValues(m.service, status).Observe(elapsed.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}

func (m *WorkerMetrics) FinishBatch(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.batchTotal.WithLabelValues(m.service, outcome).Inc()
}
