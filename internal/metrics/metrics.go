package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sensor Metrics
var (
	// SensorReadDuration tracks flow sensor read latency in seconds
	SensorReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sensor_read_duration_seconds",
			Help:    "Flow sensor read duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SensorReadsTotal tracks sensor reads by status (ok/timeout/error)
	SensorReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_reads_total",
			Help: "Total flow sensor reads by status",
		},
		[]string{"status"},
	)

	// SensorFallbacks tracks reads answered from the last-known value
	SensorFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_fallbacks_total",
			Help: "Total reads served from the last-known value",
		},
	)

	// SensorBreakerState tracks the sensor circuit breaker state
	// (0=closed, 1=half-open, 2=open)
	SensorBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sensor_circuit_breaker_state",
			Help: "Current sensor circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Settings Metrics
var (
	// SettingsSavesTotal tracks settings persistence attempts by status
	SettingsSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_saves_total",
			Help: "Total settings save attempts by status (ok/invalid/io_error)",
		},
		[]string{"status"},
	)

	// FlowCounterResets tracks counter reset operations
	FlowCounterResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flow_counter_resets_total",
			Help: "Total flow counter resets",
		},
	)
)

// Auth Metrics
var (
	// WifiAuthAttempts tracks WiFi gate password checks by outcome
	WifiAuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifi_auth_attempts_total",
			Help: "Total WiFi gate password checks by outcome (success/failure)",
		},
		[]string{"outcome"},
	)

	// WifiSessionsActive tracks currently valid WiFi auth tokens
	WifiSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wifi_sessions_active",
			Help: "Number of currently valid WiFi auth tokens",
		},
	)
)
