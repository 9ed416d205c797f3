package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	suggestionsCreated  *prometheus.CounterVec
	classifications     *prometheus.CounterVec
	attachments         *prometheus.CounterVec
	attachmentLatency   prometheus.Histogram
	activityAppendFails *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestion_box_http_requests_total",
			Help: "API requests served, split by public and staff surface.",
		}, []string{"surface", "method", "route", "status"})

		// Intake requests include classification and upload time, hence the long tail buckets.
		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "suggestion_box_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5, 10, 30},
		}, []string{"surface", "method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestion_box_http_errors_total",
			Help: "Error responses returned by the API.",
		}, []string{"surface", "method", "route", "status"})

		suggestionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestions_created_total",
			Help: "Suggestions accepted through the public form.",
		}, []string{"category", "priority"})

		classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestion_classifications_total",
			Help: "Priority classification attempts by outcome.",
		}, []string{"outcome"})

		attachments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestion_attachments_total",
			Help: "Image attachment uploads by outcome.",
		}, []string{"outcome"})

		attachmentLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "suggestion_attachment_upload_seconds",
			Help:    "Latency of image attachment uploads.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		})

		activityAppendFails = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_log_append_failures_total",
			Help: "Activity log entries that could not be written.",
		}, []string{"action"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			suggestionsCreated, classifications, attachments, attachmentLatency,
			activityAppendFails,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for 4xx and 5xx responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SuggestionsCreated counts persisted public submissions.
func SuggestionsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return suggestionsCreated
}

// Classifications counts classifier outcomes.
func Classifications() *prometheus.CounterVec {
	RegisterMetrics()
	return classifications
}

// Attachments counts attachment outcomes.
func Attachments() *prometheus.CounterVec {
	RegisterMetrics()
	return attachments
}

// AttachmentLatency observes attachment upload duration.
func AttachmentLatency() prometheus.Histogram {
	RegisterMetrics()
	return attachmentLatency
}

// ActivityAppendFailures counts swallowed activity log write errors.
func ActivityAppendFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return activityAppendFails
}
