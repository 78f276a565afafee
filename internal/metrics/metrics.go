// Package metrics exposes Prometheus counters for the ledger and its store.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "quaderno_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultInvalid = "invalid"

	LoadOK      = "ok"
	LoadAbsent  = "absent"
	LoadCorrupt = "corrupt"
)

var (
	registerOnce sync.Once

	appendsTotal    *prometheus.CounterVec
	storeLoadTotal  *prometheus.CounterVec
	storeSaveTotal  *prometheus.CounterVec
	storeSaveTime   *prometheus.HistogramVec
	skippedRecords  prometheus.Counter
	ledgerRecords   prometheus.Gauge
	ledgerPending   prometheus.Gauge
	exportTotal     *prometheus.CounterVec
	summaryCacheHit *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
)

// Init registers the metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		appendsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_appends_total",
				Help: "Total expense submissions by result",
			},
			[]string{"result"},
		)
		storeLoadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_load_total",
				Help: "Total record store loads by outcome",
			},
			[]string{"result"},
		)
		storeSaveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_save_total",
				Help: "Total record store saves by result",
			},
			[]string{"result"},
		)
		storeSaveTime = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_save_latency_seconds",
				Help:    "Record store save latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		skippedRecords = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_skipped_records_total",
				Help: "Persisted records dropped while loading because they were unreadable",
			},
		)
		ledgerRecords = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "ledger_records",
				Help: "Number of records held by the ledger",
			},
		)
		ledgerPending = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "ledger_pending",
				Help: "1 when the in-memory ledger has not been persisted",
			},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total workbook exports by result",
			},
			[]string{"result"},
		)
		summaryCacheHit = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "summary_cache_total",
				Help: "Summary cache lookups by outcome",
			},
			[]string{"outcome"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "code"},
		)
		httpDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		prometheus.MustRegister(
			appendsTotal,
			storeLoadTotal,
			storeSaveTotal,
			storeSaveTime,
			skippedRecords,
			ledgerRecords,
			ledgerPending,
			exportTotal,
			summaryCacheHit,
			httpRequests,
			httpDuration,
		)
	})
}

// IncAppend counts a submission.
func IncAppend(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if appendsTotal != nil {
		appendsTotal.WithLabelValues(result).Inc()
	}
}

// IncStoreLoad counts a load by outcome (ok, absent, corrupt).
func IncStoreLoad(result string) {
	if result == "" {
		result = LoadOK
	}
	if storeLoadTotal != nil {
		storeLoadTotal.WithLabelValues(result).Inc()
	}
}

// ObserveStoreSave records save duration and result.
func ObserveStoreSave(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if storeSaveTotal != nil {
		storeSaveTotal.WithLabelValues(result).Inc()
	}
	if storeSaveTime != nil {
		storeSaveTime.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddSkippedRecords counts records dropped during a load.
func AddSkippedRecords(n int) {
	if n <= 0 {
		return
	}
	if skippedRecords != nil {
		skippedRecords.Add(float64(n))
	}
}

// SetLedgerState publishes the ledger size and pending flag.
func SetLedgerState(records int, pending bool) {
	if ledgerRecords != nil {
		ledgerRecords.Set(float64(records))
	}
	if ledgerPending != nil {
		v := 0.0
		if pending {
			v = 1
		}
		ledgerPending.Set(v)
	}
}

// IncExport counts a workbook export.
func IncExport(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(result).Inc()
	}
}

// IncSummaryCache counts a summary cache hit or miss.
func IncSummaryCache(hit bool) {
	if summaryCacheHit == nil {
		return
	}
	if hit {
		summaryCacheHit.WithLabelValues("hit").Inc()
		return
	}
	summaryCacheHit.WithLabelValues("miss").Inc()
}

// ObserveHTTPRequest counts a served request and its latency. route is the
// mux pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	}
	if httpDuration != nil {
		httpDuration.WithLabelValues(route).Observe(duration.Seconds())
	}
}
