package services

import "github.com/prometheus/client_golang/prometheus"

// Failure kinds reported by pilotlog_import_failures_total.
const (
	failMalformed   = "malformed_input"
	failValidation  = "validation"
	failPersistence = "persistence"
	failRejected    = "rejected"
	failOther       = "other"
)

var (
	// importRecords counts committed records by table.
	importRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilotlog_import_records_total",
			Help: "Records received by committed imports.",
		},
		[]string{"table"},
	)

	// importDuration records how long an import took end to end.
	importDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pilotlog_import_duration_seconds",
			Help:    "Duration of logbook imports in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	importFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilotlog_import_failures_total",
			Help: "Failed imports by failure kind.",
		},
		[]string{"kind"},
	)

	// exportRows counts data rows written by exports, by template table.
	exportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilotlog_export_rows_total",
			Help: "Data rows written by logbook exports.",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(importRecords, importDuration, importFailures, exportRows)
}
