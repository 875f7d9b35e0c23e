package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiflow_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error|suspended
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optiflow_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optiflow_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Broker metrics
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiflow_provider_calls_total",
			Help: "Total number of market data provider calls",
		},
		[]string{"endpoint", "status"}, // status: success|error|rate_limited
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optiflow_provider_latency_seconds",
			Help:    "Market data provider latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Analytics metrics
	SignalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiflow_signals_generated_total",
			Help: "Total number of generated trading signals",
		},
		[]string{"symbol", "strategy", "type"},
	)

	ChainStrikes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optiflow_chain_strikes",
			Help: "Strike count of the latest normalized chain snapshot",
		},
		[]string{"symbol"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiflow_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)

	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "optiflow_websocket_connections",
			Help: "Current number of active WebSocket clients",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(ProviderCalls)
	prometheus.MustRegister(ProviderLatency)

	prometheus.MustRegister(SignalsGenerated)
	prometheus.MustRegister(ChainStrikes)

	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(WebSocketConnections)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, status string) {
	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordProviderCall records one market data provider request
func RecordProviderCall(endpoint string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ProviderCalls.WithLabelValues(endpoint, status).Inc()
	ProviderLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

// RecordSignals counts generated signals by symbol, strategy and direction
func RecordSignals(symbol, strategy, signalType string) {
	SignalsGenerated.WithLabelValues(symbol, strategy, signalType).Inc()
}
