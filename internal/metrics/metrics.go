// Package metrics exposes Prometheus counters for auctions and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	BidsTotal        *prometheus.CounterVec
	JoinsTotal       *prometheus.CounterVec
	SettlementsTotal *prometheus.CounterVec
	RefundsTotal     prometheus.Counter
	LedgerEntries    *prometheus.CounterVec
	SchedulerOpened  prometheus.Counter
	HTTPLatency      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		BidsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Bid attempts by outcome.",
		}, []string{"outcome"}),
		JoinsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_joins_total",
			Help: "Join attempts by outcome.",
		}, []string{"outcome"}),
		SettlementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_settlements_total",
			Help: "Settlement runs by result (won|no_bids|noop).",
		}, []string{"result"}),
		RefundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_refunds_total",
			Help: "Refund ledger entries written.",
		}),
		LedgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_ledger_entries_total",
			Help: "Ledger entries by type.",
		}, []string{"type"}),
		SchedulerOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_scheduler_opened_total",
			Help: "Auctions moved to opening by the scheduler.",
		}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.reg.MustRegister(
		m.BidsTotal, m.JoinsTotal, m.SettlementsTotal, m.RefundsTotal,
		m.LedgerEntries, m.SchedulerOpened, m.HTTPLatency,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Bid(outcome string) {
	if m != nil {
		m.BidsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Join(outcome string) {
	if m != nil {
		m.JoinsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Settlement(result string, refunds int) {
	if m != nil {
		m.SettlementsTotal.WithLabelValues(result).Inc()
		m.RefundsTotal.Add(float64(refunds))
	}
}

func (m *Metrics) Ledger(txType string) {
	if m != nil {
		m.LedgerEntries.WithLabelValues(txType).Inc()
	}
}

func (m *Metrics) Opened(n int64) {
	if m != nil {
		m.SchedulerOpened.Add(float64(n))
	}
}

// ObserveHTTP records one request's latency.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
