// Package sensor provides implementations of the flow sensor reading source.
//
// The metering MCU counts magnet rotations as pulses; a pulse totalizer
// converts the cumulative pulse count to liters. In production the count
// arrives over MQTT; a simulated source is available for development.
package sensor
