package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the bot's Prometheus metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	CommandsTotal     *prometheus.CounterVec // labels: command
	SignalsTotal      *prometheus.CounterVec // labels: label
	FetchErrorsTotal  *prometheus.CounterVec // labels: symbol
	BroadcastsTotal   prometheus.Counter
	MessagesSentTotal *prometheus.CounterVec // labels: status
	AnalysisDuration  prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosignal_commands_total",
			Help: "Bot commands handled",
		}, []string{"command"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosignal_signals_total",
			Help: "Signals produced by label",
		}, []string{"label"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosignal_fetch_errors_total",
			Help: "Failed market data fetches",
		}, []string{"symbol"}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cryptosignal_broadcasts_total",
			Help: "Completed broadcast runs",
		}),
		MessagesSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptosignal_messages_sent_total",
			Help: "Telegram messages sent by outcome (ok, failed)",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cryptosignal_analysis_duration_seconds",
			Help:    "Time to fetch and analyse one pair",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CommandsTotal,
		m.SignalsTotal,
		m.FetchErrorsTotal,
		m.BroadcastsTotal,
		m.MessagesSentTotal,
		m.AnalysisDuration,
	)
	return m
}

// MessageSent records the outcome of one outgoing message.
func (m *Metrics) MessageSent(err error) {
	if err != nil {
		m.MessagesSentTotal.WithLabelValues("failed").Inc()
		return
	}
	m.MessagesSentTotal.WithLabelValues("ok").Inc()
}
