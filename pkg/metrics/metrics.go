package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// HistogramBuckets are latency buckets in milliseconds. Checkout calls are
// dominated by provider round trips, so the bulk sits between 100ms and 2s.
var HistogramBuckets = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1250, 1500, 1750, 2000,
	2500, 3000, 4000, 5000, 7500, 10000, 15000,
	20000, 30000, 60000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	}
	return metric
}

// register adds c to reg, returning the already registered collector when
// an identical one exists.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsCheckoutSessions = &Metric{
	ID:          "checkoutSessions",
	Name:        "checkout_sessions_total",
	Description: "Checkout session creation attempts by result.",
	Type:        "counter_vec",
	Args:        []string{"result"},
}

var MetricsCheckoutVerifications = &Metric{
	ID:          "checkoutVerifications",
	Name:        "checkout_verifications_total",
	Description: "Checkout session verifications by result.",
	Type:        "counter_vec",
	Args:        []string{"result"},
}

var MetricsOutboxEvents = &Metric{
	ID:          "outboxEvents",
	Name:        "outbox_events_total",
	Description: "Outbox event dispatches by event type and result.",
	Type:        "counter_vec",
	Args:        []string{"type", "result"},
}

// Business holds the domain counters. A nil *Business records nothing.
type Business struct {
	processDur    *prometheus.HistogramVec
	sessions      *prometheus.CounterVec
	verifications *prometheus.CounterVec
	outboxEvents  *prometheus.CounterVec
}

func NewBusiness(reg prometheus.Registerer) *Business {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Business{
		processDur:    register(reg, NewMetric(MetricsBusinessProcess, "")).(*prometheus.HistogramVec),
		sessions:      register(reg, NewMetric(MetricsCheckoutSessions, "")).(*prometheus.CounterVec),
		verifications: register(reg, NewMetric(MetricsCheckoutVerifications, "")).(*prometheus.CounterVec),
		outboxEvents:  register(reg, NewMetric(MetricsOutboxEvents, "")).(*prometheus.CounterVec),
	}
}

func (b *Business) ObserveProcess(typ, subtype string, start time.Time) {
	if b == nil {
		return
	}
	b.processDur.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func (b *Business) CheckoutSession(result string) {
	if b == nil {
		return
	}
	b.sessions.WithLabelValues(result).Inc()
}

func (b *Business) CheckoutVerification(result string) {
	if b == nil {
		return
	}
	b.verifications.WithLabelValues(result).Inc()
}

func (b *Business) OutboxEvent(eventType, result string) {
	if b == nil {
		return
	}
	b.outboxEvents.WithLabelValues(eventType, result).Inc()
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

const (
	RefererKey = "X-Referer"
)

var Module = fx.Options(
	fx.Provide(func() *Business { return NewBusiness(prometheus.DefaultRegisterer) }),
)
