package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics on Prometheus.
type Recorder struct {
	analyses     *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastClose    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New registers the collectors on reg, or the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendpull_analyses_total",
			Help: "Trend analyses by signal status",
		}, []string{"status"}),
		messagesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendpull_messages_sent_total",
			Help: "Reports delivered per backend and topic",
		}, []string{"backend", "topic"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trendpull_errors_total",
			Help: "Errors by kind",
		}, []string{"kind"}),
		lastClose: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendpull_last_close",
			Help: "Latest analysed close per symbol",
		}, []string{"symbol"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trendpull_operation_duration_seconds",
			Help:    "Duration of pipeline operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}
}

func (r *Recorder) RecordAnalysis(status string) {
	r.analyses.WithLabelValues(status).Inc()
}

func (r *Recorder) RecordMessageSent(backend, topic string) {
	r.messagesSent.WithLabelValues(backend, topic).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordAnalysis(string) {}
func (Nop) RecordMessageSent(string, string) {}
func (Nop) RecordError(string) {}
func (Nop) RecordLastClose(string, float64) {}
func (Nop) RecordLatency(string, float64) {}
