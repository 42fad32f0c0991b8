// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth outcomes and HTTP request latency.
type Collector struct {
	logins      *prometheus.CounterVec
	otpIssued   *prometheus.CounterVec
	otpVerify   *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_auth_login_total",
			Help: "Password login attempts by outcome.",
		}, []string{"outcome"}),
		otpIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_auth_otp_issued_total",
			Help: "One-time codes issued by reason.",
		}, []string{"reason"}),
		otpVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_auth_otp_verify_total",
			Help: "One-time code verifications by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_auth_refresh_total",
			Help: "Refresh token exchanges by outcome.",
		}, []string{"outcome"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learnhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.logins,
		c.otpIssued,
		c.otpVerify,
		c.refreshes,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordOtpIssued(reason string) {
	c.otpIssued.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordOtpVerify(outcome string) {
	c.otpVerify.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one request; route is the matched pattern, not the raw path.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
