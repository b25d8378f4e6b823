package domain

import "errors"

var (
	ErrInvalidDensity    = errors.New("density must be greater than zero")
	ErrSensorTimeout     = errors.New("sensor read timed out")
	ErrSensorUnavailable = errors.New("sensor has not reported yet")
)
