package domain

// Calibration defaults applied when no settings file exists yet or the
// stored record cannot be read.
const (
	DefaultDensity      = 1.0
	DefaultMagnetOffset = 0.0
)

// Settings holds the persisted device configuration: the two calibration
// parameters entered on the dashboard plus the flow counter baseline
// captured at the last reset.
type Settings struct {
	// Density of the measured fluid in g/mL, must be > 0.
	Density float64 `json:"density"`
	// MagnetOffset is the magnet rotation offset in degrees, any real value.
	MagnetOffset float64 `json:"magnet_offset"`
	// Baseline is the raw sensor accumulator value at the last counter
	// reset. Liters flowed is total minus baseline.
	Baseline float64 `json:"baseline"`
}

// DefaultSettings returns the documented fallback configuration.
func DefaultSettings() Settings {
	return Settings{
		Density:      DefaultDensity,
		MagnetOffset: DefaultMagnetOffset,
		Baseline:     0,
	}
}

// SettingsStore is the persistence contract for device settings.
type SettingsStore interface {
	// Current returns the in-memory settings, which are authoritative even
	// when the last write failed.
	Current() Settings
	// SaveCalibration validates and persists the calibration pair.
	SaveCalibration(density, magnetOffset float64) error
	// Baseline returns the stored flow counter baseline.
	Baseline() float64
	// SetBaseline records a new baseline. It always succeeds in memory;
	// persistence is best effort.
	SetBaseline(v float64)
}
