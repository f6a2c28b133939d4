package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outreach_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	placesSearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outreach_places_search_duration_seconds",
		Help:    "Duration of place searches including page delays",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
	}, []string{"result"})

	placesPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outreach_places_pages_fetched_total",
		Help: "Text search pages fetched from the places provider",
	})

	placesUpstreamDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_places_upstream_degraded_total",
		Help: "Searches truncated by a provider status or transport failure",
	}, []string{"status"})

	placesEnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outreach_places_enrichment_failures_total",
		Help: "Place detail lookups that failed and were skipped",
	})

	geocodeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_geocode_cache_lookups_total",
		Help: "Geocode cache lookups by outcome",
	}, []string{"outcome"})

	importedContractors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_import_contractors_total",
		Help: "Contractors reconciled by import, by outcome",
	}, []string{"outcome"})

	contractorChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_contractor_changes_total",
		Help: "Applied contractor field changes by action",
	}, []string{"action"})

	activityLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outreach_activity_log_append_failures_total",
		Help: "Activity log appends that failed after a successful mutation",
	})

	exportRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "outreach_export_rows",
		Help:    "Rows written per CSV export",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	notificationsPurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_notifications_purged_total",
		Help: "Read notifications removed by the retention worker",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObservePlacesSearch records one search with its page count and degradation status.
// An empty upstreamStatus means the search was not truncated.
func ObservePlacesSearch(result string, pages int, upstreamStatus string, duration time.Duration) {
	placesSearchDuration.WithLabelValues(result).Observe(duration.Seconds())
	placesPagesFetched.Add(float64(pages))
	if upstreamStatus != "" {
		placesUpstreamDegraded.WithLabelValues(upstreamStatus).Inc()
	}
}

// ObserveEnrichmentFailure counts a skipped place detail lookup
func ObserveEnrichmentFailure() {
	placesEnrichmentFailures.Inc()
}

// ObserveGeocodeCache records a geocode cache hit or miss
func ObserveGeocodeCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	geocodeCacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveImport records the counts of a reconciled batch
func ObserveImport(inserted, updated int) {
	importedContractors.WithLabelValues("inserted").Add(float64(inserted))
	importedContractors.WithLabelValues("updated").Add(float64(updated))
}

// ObserveContractorChange counts one applied field change
func ObserveContractorChange(action string) {
	contractorChanges.WithLabelValues(action).Inc()
}

// ObserveActivityLogFailure counts a dropped activity log append
func ObserveActivityLogFailure() {
	activityLogFailures.Inc()
}

// ObserveExport records the size of a CSV export
func ObserveExport(rows int) {
	exportRows.Observe(float64(rows))
}

// ObserveNotificationPurge records a retention sweep
func ObserveNotificationPurge(result string, count int64) {
	notificationsPurged.WithLabelValues(result).Add(float64(count))
}
