package hooks

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/youssefsiam38/agentctx/audit"
)

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// Register attaches every metrics hook to r
func (h *MetricsHooks) Register(r *Registry) {
	r.OnBeforeRequest(h.BeforeRequest)
	r.OnSummaryUpdated(h.SummaryUpdated)
	r.OnSummaryFailed(h.SummaryFailed)
}

// BeforeRequest records request size metrics
func (h *MetricsHooks) BeforeRequest(ctx context.Context, req Request) error {
	tags := map[string]string{"model": req.Model.ID}
	h.OnMetric("agentctx.request.messages", float64(len(req.Context.Messages)), tags)
	h.OnMetric("agentctx.request.tool_results", float64(countToolResults(req.Context.Messages)), tags)
	return nil
}

// SummaryUpdated records compaction metrics
func (h *MetricsHooks) SummaryUpdated(ctx context.Context, event audit.Event) error {
	tags := map[string]string{"model": event.Tags.ModelID}
	h.OnMetric("agentctx.summary.updated", 1, tags)
	h.OnMetric("agentctx.summary.compressed_rounds", float64(event.CompressedRounds), tags)
	h.OnMetric("agentctx.summary.remaining_messages", float64(event.RemainingMessages), tags)
	return nil
}

// SummaryFailed records failed summarization metrics
func (h *MetricsHooks) SummaryFailed(ctx context.Context, event audit.Event) error {
	tags := map[string]string{"model": event.Tags.ModelID}
	h.OnMetric("agentctx.summary.failed", 1, tags)
	return nil
}

// PrometheusHooks exports compaction metrics through client_golang.
type PrometheusHooks struct {
	requests          *prometheus.CounterVec
	requestMessages   *prometheus.HistogramVec
	summaryUpdated    *prometheus.CounterVec
	summaryFailed     *prometheus.CounterVec
	compressedRounds  *prometheus.CounterVec
	remainingMessages *prometheus.HistogramVec
}

// NewPrometheusHooks registers the compaction collectors with reg. A nil reg
// uses prometheus.DefaultRegisterer. Collectors already registered by an
// earlier call are reused, so every engine of a process can share reg.
func NewPrometheusHooks(reg prometheus.Registerer) (*PrometheusHooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	messageBuckets := []float64{5, 10, 20, 40, 80, 160, 320, 640}

	h := &PrometheusHooks{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentctx",
				Subsystem: "compaction",
				Name:      "requests_total",
				Help:      "Total number of requests forwarded to the wrapped streamer",
			},
			[]string{"provider", "model"},
		),
		requestMessages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "agentctx",
				Subsystem: "compaction",
				Name:      "request_messages",
				Help:      "Number of messages per forwarded request",
				Buckets:   messageBuckets,
			},
			[]string{"provider", "model"},
		),
		summaryUpdated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentctx",
				Subsystem: "compaction",
				Name:      "summary_updated_total",
				Help:      "Total number of successful tool history summary updates",
			},
			[]string{"provider", "model"},
		),
		summaryFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentctx",
				Subsystem: "compaction",
				Name:      "summary_failed_total",
				Help:      "Total number of failed tool history summarization attempts",
			},
			[]string{"provider", "model"},
		),
		compressedRounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentctx",
				Subsystem: "compaction",
				Name:      "compressed_rounds_total",
				Help:      "Total number of tool rounds folded into summaries",
			},
			[]string{"provider", "model"},
		),
		remainingMessages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "agentctx",
				Subsystem: "compaction",
				Name:      "remaining_messages",
				Help:      "Messages left in context after pruning",
				Buckets:   messageBuckets,
			},
			[]string{"provider", "model"},
		),
	}

	var err error
	if h.requests, err = register(reg, h.requests); err != nil {
		return nil, err
	}
	if h.requestMessages, err = register(reg, h.requestMessages); err != nil {
		return nil, err
	}
	if h.summaryUpdated, err = register(reg, h.summaryUpdated); err != nil {
		return nil, err
	}
	if h.summaryFailed, err = register(reg, h.summaryFailed); err != nil {
		return nil, err
	}
	if h.compressedRounds, err = register(reg, h.compressedRounds); err != nil {
		return nil, err
	}
	if h.remainingMessages, err = register(reg, h.remainingMessages); err != nil {
		return nil, err
	}
	return h, nil
}

// register adds c to reg, or returns the collector a previous call registered
// under the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Register attaches every Prometheus hook to r
func (h *PrometheusHooks) Register(r *Registry) {
	r.OnBeforeRequest(h.BeforeRequest)
	r.OnSummaryUpdated(h.SummaryUpdated)
	r.OnSummaryFailed(h.SummaryFailed)
}

// BeforeRequest counts forwarded requests
func (h *PrometheusHooks) BeforeRequest(ctx context.Context, req Request) error {
	h.requests.WithLabelValues(req.Model.Provider, req.Model.ID).Inc()
	h.requestMessages.WithLabelValues(req.Model.Provider, req.Model.ID).Observe(float64(len(req.Context.Messages)))
	return nil
}

// SummaryUpdated counts summary updates
func (h *PrometheusHooks) SummaryUpdated(ctx context.Context, event audit.Event) error {
	h.summaryUpdated.WithLabelValues(event.Tags.Provider, event.Tags.ModelID).Inc()
	h.compressedRounds.WithLabelValues(event.Tags.Provider, event.Tags.ModelID).Add(float64(event.CompressedRounds))
	h.remainingMessages.WithLabelValues(event.Tags.Provider, event.Tags.ModelID).Observe(float64(event.RemainingMessages))
	return nil
}

// SummaryFailed counts failed summarization attempts
func (h *PrometheusHooks) SummaryFailed(ctx context.Context, event audit.Event) error {
	h.summaryFailed.WithLabelValues(event.Tags.Provider, event.Tags.ModelID).Inc()
	return nil
}
