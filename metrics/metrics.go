// Package metrics holds the Prometheus collectors of the report API.
package metrics

import (
	"net/http"

	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "karunya"

// Metrics is a private registry plus the API counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reportsCreated   *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
	uploadsRejected  *prometheus.CounterVec
	volunteers       prometheus.Counter
	mediaBytes       prometheus.Histogram
	geocodeFallbacks prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		reportsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_created_total",
			Help:      "Incident reports stored, by type.",
		}, []string{"type"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_status_updates_total",
			Help:      "Case status changes, by new status.",
		}, []string{"status"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Report uploads refused before storage, by reason.",
		}, []string{"reason"}),
		volunteers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volunteers_registered_total",
			Help:      "Volunteer registrations stored.",
		}),
		mediaBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_upload_bytes",
			Help:      "Size of stored report media.",
			Buckets:   prometheus.ExponentialBuckets(64<<10, 4, 7),
		}),
		geocodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locate_fallback_labels_total",
			Help:      "Locate answers that fell back to a numeric label.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reportsCreated,
		m.statusUpdates,
		m.uploadsRejected,
		m.volunteers,
		m.mediaBytes,
		m.geocodeFallbacks,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ReportCreated(t models.ReportType, mediaBytes int64) {
	if m == nil {
		return
	}
	m.reportsCreated.WithLabelValues(string(t)).Inc()
	m.mediaBytes.Observe(float64(mediaBytes))
}

func (m *Metrics) StatusUpdated(status string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status).Inc()
}

// UploadRejected counts a refused upload; reason is a short fixed token
// such as "missing_media" or "too_large".
func (m *Metrics) UploadRejected(reason string) {
	if m == nil {
		return
	}
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) VolunteerRegistered() {
	if m == nil {
		return
	}
	m.volunteers.Inc()
}

func (m *Metrics) LocateFallback() {
	if m == nil {
		return
	}
	m.geocodeFallbacks.Inc()
}
