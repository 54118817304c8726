package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postit_commands_total",
		Help: "Commands applied by the state processor, by kind and result.",
	}, []string{"kind", "result"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postit_command_duration_seconds",
		Help:    "Time spent applying one command to the state store.",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"kind"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postit_queue_depth",
		Help: "Commands waiting in the processor queue.",
	})

	messagesStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postit_messages_stored",
		Help: "Messages held by the state store.",
	})

	enqueueFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postit_enqueue_failures_total",
		Help: "Commands that never reached the processor, by reason.",
	}, []string{"reason"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postit_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postit_http_request_duration_seconds",
		Help:    "HTTP request latency by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// ObserveCommand records one applied command.
func ObserveCommand(kind, result string, d time.Duration) {
	commandsTotal.WithLabelValues(kind, result).Inc()
	commandDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

// SetMessagesStored records the store size.
func SetMessagesStored(n int) { messagesStored.Set(float64(n)) }

// EnqueueFailed counts a command rejected before reaching the processor.
func EnqueueFailed(reason string) { enqueueFailures.WithLabelValues(reason).Inc() }
