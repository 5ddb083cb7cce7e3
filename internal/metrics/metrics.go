// Package metrics collects and exposes Prometheus metrics for the auction core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BidRecorder receives bid placement events from the bidding service
type BidRecorder interface {
	RecordBidCommitted()
	RecordBidRejected(reason string)
	RecordBidFailure(kind string)
	RecordPlaceBidLatency(duration time.Duration)
}

// Collector is the Prometheus implementation of BidRecorder
type Collector struct {
	bidsCommitted   prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	bidFailures     *prometheus.CounterVec
	placeBidLatency prometheus.Histogram
	httpRequests    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bidsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bids_committed_total",
			Help: "Total number of bids appended to a ledger",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bids_rejected_total",
			Help: "Total number of bids rejected by business rules",
		}, []string{"reason"}),
		bidFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bid_failures_total",
			Help: "Total number of bid placements that ended without a decision",
		}, []string{"kind"}),
		placeBidLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auction_place_bid_duration_seconds",
			Help:    "Latency of bid placement including the wait for the product lock",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_http_requests_total",
			Help: "HTTP responses by status code",
		}, []string{"status"}),
	}

	reg.MustRegister(
		c.bidsCommitted,
		c.bidsRejected,
		c.bidFailures,
		c.placeBidLatency,
		c.httpRequests,
	)

	return c
}

// RecordBidCommitted counts a committed bid
func (c *Collector) RecordBidCommitted() {
	c.bidsCommitted.Inc()
}

// RecordBidRejected counts a rejected bid by reason
func (c *Collector) RecordBidRejected(reason string) {
	c.bidsRejected.WithLabelValues(reason).Inc()
}

// RecordBidFailure counts a placement that failed with not-found, invalid input or a storage error
func (c *Collector) RecordBidFailure(kind string) {
	c.bidFailures.WithLabelValues(kind).Inc()
}

// RecordPlaceBidLatency observes one placement latency
func (c *Collector) RecordPlaceBidLatency(duration time.Duration) {
	c.placeBidLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus counts one HTTP response
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the HTTP handler Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every event
type Noop struct{}

func (Noop) RecordBidCommitted()                 {}
func (Noop) RecordBidRejected(string)            {}
func (Noop) RecordBidFailure(string)             {}
func (Noop) RecordPlaceBidLatency(time.Duration) {}
