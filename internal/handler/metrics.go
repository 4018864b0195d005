package handler

import (
	"fmt"
	"net/http"

	"github.com/sitekit/sitekit/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "sitekit_subscribe_total{outcome=\"added\"} %d\n", snap.SubscribesAdded)
	writeMetric(w, "sitekit_subscribe_total{outcome=\"duplicate\"} %d\n", snap.SubscribesDuplicate)
	writeMetric(w, "sitekit_unsubscribe_total{outcome=\"removed\"} %d\n", snap.UnsubscribesRemoved)
	writeMetric(w, "sitekit_unsubscribe_total{outcome=\"missing\"} %d\n", snap.UnsubscribesMissing)

	writeMetric(w, "sitekit_token_requests_total %d\n", snap.TokensRequested)
	writeMetric(w, "sitekit_token_approvals_total %d\n", snap.TokensApproved)
	writeMetric(w, "sitekit_token_rejections_total %d\n", snap.TokensRejected)
	writeMetric(w, "sitekit_token_verifications_total{outcome=\"valid\"} %d\n", snap.TokenVerifications)
	writeMetric(w, "sitekit_token_verifications_total{outcome=\"invalid\"} %d\n", snap.TokenVerificationsFail)

	for _, kind := range snap.MailFailureKinds() {
		writeMetric(w, "sitekit_mail_failures_total{template=%q} %d\n", kind, snap.MailFailures[kind])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
