// Package metrics exposes the Prometheus instruments of the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer reports to. Outcome labels are short
// fixed strings such as "success", "conflict" or "invalid_credentials".
type Recorder interface {
	RecordRegister(outcome string)
	RecordLogin(outcome string)
	RecordLogout(revoked bool)
	RecordRevocationCheck(result string)
	RecordHTTPRequest(route string, statusCode int, duration time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	registrations    *prometheus.CounterVec
	logins           *prometheus.CounterVec
	logouts          *prometheus.CounterVec
	revocationChecks *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its instruments with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logouts_total",
			Help: "Logouts, labelled by whether the token was blacklisted.",
		}, []string{"revoked"}),
		revocationChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_revocation_checks_total",
			Help: "Revocation lookups by result.",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_requests_total",
			Help: "HTTP responses by route and status code.",
		}, []string{"route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.logouts,
		c.revocationChecks,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordRegister(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogout(revoked bool) {
	c.logouts.WithLabelValues(strconv.FormatBool(revoked)).Inc()
}

// RecordRevocationCheck counts a lookup; result is the String() of the
// revocation check outcome.
func (c *Collector) RecordRevocationCheck(result string) {
	c.revocationChecks.WithLabelValues(result).Inc()
}

func (c *Collector) RecordHTTPRequest(route string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nop struct{}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nop{} }

func (nop) RecordRegister(string)                        {}
func (nop) RecordLogin(string)                           {}
func (nop) RecordLogout(bool)                            {}
func (nop) RecordRevocationCheck(string)                 {}
func (nop) RecordHTTPRequest(string, int, time.Duration) {}
