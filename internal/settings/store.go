package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/dustinteng/idx-flowmeter/internal/metrics"
)

// Store is the single owner of persisted device settings. All mutations are
// serialized behind one mutex; the in-memory copy stays authoritative when a
// write fails.
type Store struct {
	mu      sync.Mutex
	path    string
	current domain.Settings
}

var _ domain.SettingsStore = (*Store)(nil)

// Open loads the settings file at path. A missing or corrupt file is not an
// error: the store starts from defaults and logs what happened.
func Open(path string) *Store {
	s := &Store{
		path:    path,
		current: domain.DefaultSettings(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No settings file found, using defaults", "path", path)
		} else {
			slog.Warn("Failed to read settings file, using defaults", "path", path, "error", err)
		}
		return s
	}

	var loaded domain.Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Warn("Settings file is corrupt, using defaults", "path", path, "error", err)
		return s
	}

	if loaded.Density <= 0 {
		slog.Warn("Stored density is invalid, using default",
			"density", loaded.Density, "default", domain.DefaultDensity)
		loaded.Density = domain.DefaultDensity
	}

	s.current = loaded
	return s
}

// Current returns a copy of the in-memory settings.
func (s *Store) Current() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SaveCalibration validates and persists a new calibration pair. On a
// validation or write failure the prior settings remain unchanged.
func (s *Store) SaveCalibration(density, magnetOffset float64) error {
	if density <= 0 {
		metrics.SettingsSavesTotal.WithLabelValues("invalid").Inc()
		return domain.ErrInvalidDensity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	next.Density = density
	next.MagnetOffset = magnetOffset

	if err := s.persist(next); err != nil {
		metrics.SettingsSavesTotal.WithLabelValues("io_error").Inc()
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	s.current = next
	metrics.SettingsSavesTotal.WithLabelValues("ok").Inc()
	slog.Info("Calibration saved", "density", density, "magnet_offset", magnetOffset)
	return nil
}

// Baseline returns the stored flow counter baseline.
func (s *Store) Baseline() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Baseline
}

// SetBaseline records a new baseline. The in-memory update always succeeds;
// the write to disk is best effort and retried at the next save.
func (s *Store) SetBaseline(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Baseline = v
	if err := s.persist(s.current); err != nil {
		slog.Warn("Failed to persist baseline, keeping in-memory value", "error", err)
	}
}

// persist writes the record through a temp file and an atomic rename.
// Callers must hold s.mu.
func (s *Store) persist(cfg domain.Settings) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	return nil
}
