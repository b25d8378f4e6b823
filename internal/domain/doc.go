// Package domain contains the core types and service interfaces of the
// flowmeter application: calibration settings, liter readings, and the
// contracts implemented by the settings store, flow service, and network
// manager.
package domain
