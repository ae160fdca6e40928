package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics tracks the core marketplace counters exposed at /metrics.
type DomainMetrics struct {
	ordersSettled  prometheus.Counter
	ordersRejected *prometheus.CounterVec
	auctionsClosed *prometheus.CounterVec
	answersServed  *prometheus.CounterVec
	llmDuration    prometheus.Histogram
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	ordersSettled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_settled_total",
		Help: "Orders that settled successfully against a wallet.",
	})
	ordersRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Orders rejected before entering the delivery pipeline.",
	}, []string{"reason"})
	auctionsClosed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auctions_closed_total",
		Help: "Delivery auctions closed, by outcome.",
	}, []string{"outcome"})
	answersServed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "answers_served_total",
		Help: "Customer questions answered, by source.",
	}, []string{"source"})
	llmDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Latency of upstream completion requests.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersSettled, ordersRejected, auctionsClosed, answersServed, llmDuration)
	return &DomainMetrics{
		ordersSettled:  ordersSettled,
		ordersRejected: ordersRejected,
		auctionsClosed: auctionsClosed,
		answersServed:  answersServed,
		llmDuration:    llmDuration,
	}
}

// IncOrderSettled counts a successful settlement.
func (m *DomainMetrics) IncOrderSettled() {
	if m == nil || m.ordersSettled == nil {
		return
	}
	m.ordersSettled.Inc()
}

// IncOrderRejected counts a rejected order with the given reason.
func (m *DomainMetrics) IncOrderRejected(reason string) {
	if m == nil || m.ordersRejected == nil {
		return
	}
	m.ordersRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncAuctionClosed counts a closed auction with the given outcome.
func (m *DomainMetrics) IncAuctionClosed(outcome string) {
	if m == nil || m.auctionsClosed == nil {
		return
	}
	m.auctionsClosed.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncAnswerServed counts an answered question by source.
func (m *DomainMetrics) IncAnswerServed(source string) {
	if m == nil || m.answersServed == nil {
		return
	}
	m.answersServed.WithLabelValues(normalizeLabel(source)).Inc()
}

// ObserveLLMDuration records the latency of a completion request.
func (m *DomainMetrics) ObserveLLMDuration(duration time.Duration) {
	if m == nil || m.llmDuration == nil {
		return
	}
	m.llmDuration.Observe(duration.Seconds())
}
