// Package server implements the HTTP server using Echo framework.
//
// Routes: dashboard (calibration form + counter reset), liters polling and
// WebSocket feed, WiFi gate (password prompt, settings page, AP update).
// Handlers split by concern: handlers_dashboard.go, handlers_liters.go,
// handlers_wifi.go, handlers_health.go.
package server
