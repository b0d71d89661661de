package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query, cache, import and lexicon metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of processed queries by outcome",
		},
		[]string{"outcome"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query processing duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10},
		},
	)

	QueryResultsFound = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results_found",
			Help:      "Records with non-zero relevance per query",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	MediaFilesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_files_returned_total",
			Help:      "Total media references returned with answers",
		},
	)

	CacheRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_refresh_total",
			Help:      "Record snapshot fetches by outcome",
		},
		[]string{"outcome"}, // "ok" / "error" / "breaker_open"
	)

	CacheRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_refresh_duration_seconds",
			Help:      "Record snapshot fetch duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	CacheRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_records",
			Help:      "Records in the last successful snapshot",
		},
	)

	ImportedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_records_total",
			Help:      "Rows read by the importer",
		},
		[]string{"result"}, // "imported" / "skipped" / "removed"
	)

	LexiconReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lexicon_reloads_total",
			Help:      "Lexicon file reloads by status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register registers the query, cache, import and lexicon metrics. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QueriesTotal,
			QueryDuration,
			QueryResultsFound,
			MediaFilesTotal,
			CacheRefreshTotal,
			CacheRefreshDuration,
			CacheRecords,
			ImportedRecordsTotal,
			LexiconReloadsTotal,
		)
	})
}

// QueryObserver records processed queries.
type QueryObserver struct{}

// ObserveQuery records one processed query.
func (QueryObserver) ObserveQuery(outcome string, found, media int, elapsed time.Duration) {
	QueriesTotal.WithLabelValues(outcome).Inc()
	QueryDuration.Observe(elapsed.Seconds())
	QueryResultsFound.Observe(float64(found))
	MediaFilesTotal.Add(float64(media))
}

// ObserveRefresh records one record snapshot fetch.
func ObserveRefresh(outcome string, records int, elapsed time.Duration) {
	CacheRefreshTotal.WithLabelValues(outcome).Inc()
	CacheRefreshDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		CacheRecords.Set(float64(records))
	}
}

// ObserveImport records the outcome of importing or removing one file.
func ObserveImport(imported, skipped, removed int) {
	ImportedRecordsTotal.WithLabelValues("imported").Add(float64(imported))
	ImportedRecordsTotal.WithLabelValues("skipped").Add(float64(skipped))
	ImportedRecordsTotal.WithLabelValues("removed").Add(float64(removed))
}

// ObserveLexiconReload records a lexicon reload attempt.
func ObserveLexiconReload(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LexiconReloadsTotal.WithLabelValues(status).Inc()
}
