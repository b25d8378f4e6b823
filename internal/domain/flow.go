package domain

import "context"

// LiterSource reads the cumulative liter total from the physical flow
// sensor. Implementations may be slow or unavailable; callers bound every
// read with a context deadline.
type LiterSource interface {
	TotalLiters(ctx context.Context) (float64, error)
}

// FlowService exposes the resettable liters-flowed counter derived from a
// LiterSource and the persisted baseline.
type FlowService interface {
	// LitersFlowed returns total minus baseline, falling back to the
	// last-known reading when the sensor does not answer in time.
	LitersFlowed(ctx context.Context) float64
	// Reset captures the current total as the new baseline.
	Reset(ctx context.Context)
}

// NetworkStatus summarizes the device's WiFi state for page rendering.
type NetworkStatus struct {
	MAC               string
	SSID              string
	AvailableNetworks []string
	APActive          bool
	APSSID            string
}

// NetworkManager wraps the host's network tooling: interface inspection,
// WiFi scanning, and access point reconfiguration.
type NetworkManager interface {
	Status(ctx context.Context) NetworkStatus
	UpdateAccessPoint(ctx context.Context, ssid, passphrase string) error
}
