package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "legalgram"

// Metrics owns a private registry so tests and multiple servers do not collide.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	documents      *prometheus.CounterVec
	renderFailures *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	wizardStarted  *prometheus.CounterVec
	wizardActive   prometheus.Gauge
	chatFallbacks  *prometheus.CounterVec
	feedPosts      prometheus.Counter
	feedMediaFail  prometheus.Counter
	feedStreams    prometheus.Gauge
	throttled      *prometheus.CounterVec
	templateLoads  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_generated_total",
			Help:      "Documents generated, by type and output format.",
		}, []string{"type", "format"}),
		renderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_render_failures_total",
			Help:      "Document generations that failed, by type.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		wizardStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_sessions_started_total",
			Help:      "Wizard sessions started, by document type.",
		}, []string{"type"}),
		chatFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_fallbacks_total",
			Help:      "Chat calls answered with the fallback reply, by operation.",
		}, []string{"op"}),
		wizardActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wizard_sessions_active",
			Help:      "Wizard sessions stored in the key-value database at the last count.",
		}),
		feedPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_posts_total",
			Help:      "Feed posts created.",
		}),
		feedMediaFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_media_failures_total",
			Help:      "Feed posts published without their attachment.",
		}),
		feedStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_stream_subscribers",
			Help:      "Open realtime feed websocket connections.",
		}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_requests_total",
			Help:      "Requests rejected by a throttle bucket group.",
		}, []string{"group"}),
		templateLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_reloads_total",
			Help:      "Document template reloads by result.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documents, m.renderFailures, m.httpRequests, m.httpDuration, m.wizardStarted,
		m.wizardActive, m.chatFallbacks, m.feedPosts, m.feedMediaFail, m.feedStreams, m.throttled, m.templateLoads,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) DocumentGenerated(docType, format string) {
	if m != nil {
		m.documents.WithLabelValues(docType, format).Inc()
	}
}

func (m *Metrics) RenderFailed(docType string) {
	if m != nil {
		m.renderFailures.WithLabelValues(docType).Inc()
	}
}

func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) WizardStarted(docType string) {
	if m != nil {
		m.wizardStarted.WithLabelValues(docType).Inc()
	}
}

func (m *Metrics) SetWizardSessions(n int) {
	if m != nil {
		m.wizardActive.Set(float64(n))
	}
}

func (m *Metrics) ChatFallback(op string) {
	if m != nil {
		m.chatFallbacks.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) FeedPostCreated(mediaFailed bool) {
	if m == nil {
		return
	}
	m.feedPosts.Inc()
	if mediaFailed {
		m.feedMediaFail.Inc()
	}
}

func (m *Metrics) FeedStreamOpened() {
	if m != nil {
		m.feedStreams.Inc()
	}
}

func (m *Metrics) FeedStreamClosed() {
	if m != nil {
		m.feedStreams.Dec()
	}
}

func (m *Metrics) Throttled(group string) {
	if m != nil {
		m.throttled.WithLabelValues(group).Inc()
	}
}

// TemplatesReloaded is shaped for docs.Watcher.OnReload.
func (m *Metrics) TemplatesReloaded(_ int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.templateLoads.WithLabelValues(result).Inc()
}
