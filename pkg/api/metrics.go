package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/dbcdb/pkg/dbc"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API and the decoder
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Decode metrics
	decodesTotal      *prometheus.CounterVec
	decodeDuration    *prometheus.HistogramVec
	tableRecords      *prometheus.GaugeVec
	lookupsTotal      *prometheus.CounterVec
	reloadsTotal      *prometheus.CounterVec
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcdb_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbcdb_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbcdb_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		decodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcdb_decodes_total",
				Help: "Total number of table file decodes",
			},
			[]string{"table", "status", "kind"},
		),

		decodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbcdb_decode_duration_seconds",
				Help:    "Table file decode duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table"},
		),

		tableRecords: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbcdb_table_records",
				Help: "Number of records in each loaded table",
			},
			[]string{"table"},
		),

		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcdb_lookups_total",
				Help: "Total number of record lookups",
			},
			[]string{"table", "status"},
		),

		reloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcdb_reloads_total",
				Help: "Total number of table reloads",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbcdb_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// errorKind maps a decode error to a short label
func errorKind(err error) string {
	kinds := []struct {
		err   error
		label string
	}{
		{dbc.ErrInvalidSchema, "invalid_schema"},
		{dbc.ErrMalformedStringBlock, "malformed_string_block"},
		{dbc.ErrUnresolvedStringOffset, "unresolved_string_offset"},
		{dbc.ErrUnsupportedFieldKind, "unsupported_field_kind"},
		{dbc.ErrInvalidKeyField, "invalid_key_field"},
		{dbc.ErrTruncatedStream, "truncated_stream"},
		{dbc.ErrInvalidSignature, "invalid_signature"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "other"
}

// ObserveDecode records a table decode. It satisfies store.DecodeObserver.
func (m *Metrics) ObserveDecode(table string, records int, duration time.Duration, err error) {
	status, kind := statusSuccess, "none"
	if err != nil {
		status, kind = statusError, errorKind(err)
	} else {
		m.tableRecords.WithLabelValues(table).Set(float64(records))
	}
	m.decodesTotal.WithLabelValues(table, status, kind).Inc()
	m.decodeDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordLookup records a record lookup
func (m *Metrics) RecordLookup(table string, found bool) {
	status := statusSuccess
	if !found {
		status = statusError
	}
	m.lookupsTotal.WithLabelValues(table, status).Inc()
}

// RecordReload records a reload
func (m *Metrics) RecordReload(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.reloadsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Capture the status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
