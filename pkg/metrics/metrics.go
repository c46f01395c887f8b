package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshot is the point-in-time state exported as gauges on every scrape.
type Snapshot struct {
	Messages      int
	Inboxes       int
	Pending       int
	Users         int
	Subscribers   int
	DroppedEvents uint64
}

// Metrics holds the relay collectors on a private registry, so several
// instances can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	eventsTotal      *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	rateLimitedTotal prometheus.Counter
	ingestTotal      *prometheus.CounterVec
	publishedTotal   *prometheus.CounterVec

	messages      prometheus.Gauge
	inboxes       prometheus.Gauge
	pending       prometheus.Gauge
	users         prometheus.Gauge
	subscribers   prometheus.Gauge
	droppedEvents prometheus.Gauge
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Relay state transitions by kind.",
		}, []string{"kind"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Bus records consumed by the ingest subscriber by result.",
		}, []string{"result"}),
		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_published_total",
			Help:      "Journal entries pushed to the bus by result.",
		}, []string{"result"}),
		messages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "messages",
			Help:      "Messages held in the store.",
		}),
		inboxes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inboxes",
			Help:      "Recipients with at least one pending message.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_messages",
			Help:      "Inbox entries waiting for removal.",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Registered identities.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Open push subscriptions.",
		}),
		droppedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriber_dropped_events",
			Help:      "Push events lost to full subscriber buffers since start.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.eventsTotal,
		m.requestsTotal,
		m.requestDuration,
		m.rateLimitedTotal,
		m.ingestTotal,
		m.publishedTotal,
		m.messages,
		m.inboxes,
		m.pending,
		m.users,
		m.subscribers,
		m.droppedEvents,
	)

	return m
}

func (m *Metrics) IncEvent(kind string) {
	m.eventsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) IncRateLimited() {
	m.rateLimitedTotal.Inc()
}

func (m *Metrics) IncIngest(result string) {
	m.ingestTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPublished(result string) {
	m.publishedTotal.WithLabelValues(result).Inc()
}

// Update refreshes every gauge from s.
func (m *Metrics) Update(s Snapshot) {
	m.messages.Set(float64(s.Messages))
	m.inboxes.Set(float64(s.Inboxes))
	m.pending.Set(float64(s.Pending))
	m.users.Set(float64(s.Users))
	m.subscribers.Set(float64(s.Subscribers))
	m.droppedEvents.Set(float64(s.DroppedEvents))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that refreshes gauges from snapshot
// before serving the registry. snapshot may be nil.
func (m *Metrics) Handler(snapshot func() Snapshot) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if snapshot != nil {
			m.Update(snapshot())
		}

		inner.ServeHTTP(w, r)
	})
}
