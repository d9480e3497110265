// Package metrics exposes the portal's Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curatime/portal/internal/notify"
)

const namespace = "curatime"

// Metrics holds every collector of the portal. It implements
// apiclient.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	apiRequests    *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	notifications  *prometheus.CounterVec
	loginRedirects *prometheus.CounterVec
	sessionsPurged prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from
// gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of calls to the CuraTime API",
		}, []string{"method", "path", "status"}),
		apiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Histogram of CuraTime API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of requests served by the portal",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of portal request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of notifications raised, by level",
		}, []string{"level"}),
		loginRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_redirects_total",
			Help:      "Total number of redirects to a login page after a 401",
		}, []string{"login"}),
		sessionsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_purged_total",
			Help:      "Total number of expired browser sessions removed",
		}),
	}
}

// ObserveRequest records one API call. Numeric path segments are folded so
// that /appointments/12/delete/ and /appointments/13/delete/ share a series.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	m.apiRequests.WithLabelValues(method, NormalizePath(path), statusLabel(status)).Inc()
	m.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveHTTP records one request served by the portal. route is the
// router's pattern, not the raw URL.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// LoginRedirect counts a redirect to login.
func (m *Metrics) LoginRedirect(login string) {
	m.loginRedirects.WithLabelValues(login).Inc()
}

// SessionsPurged adds n purged sessions.
func (m *Metrics) SessionsPurged(n int64) {
	m.sessionsPurged.Add(float64(n))
}

// Notifier wraps next so every notification is counted by level.
func (m *Metrics) Notifier(next notify.Notifier) notify.Notifier {
	return &countingNotifier{next: next, counter: m.notifications}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type countingNotifier struct {
	next    notify.Notifier
	counter *prometheus.CounterVec
}

func (c *countingNotifier) Notify(ctx context.Context, n notify.Notification) {
	c.counter.WithLabelValues(string(n.Level)).Inc()
	c.next.Notify(ctx, n)
}

// NormalizePath strips the query and replaces numeric segments with ":id".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
