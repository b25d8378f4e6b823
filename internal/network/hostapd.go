package network

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dustinteng/idx-flowmeter/internal/errors"
)

// WPA2 passphrase length limits per IEEE 802.11i.
const (
	minPassphraseLen = 8
	maxPassphraseLen = 63
	maxSSIDLen       = 32
)

// ValidateAccessPoint checks the SSID and passphrase against hostapd's own
// constraints before anything touches the config file.
func ValidateAccessPoint(ssid, passphrase string) error {
	if strings.TrimSpace(ssid) == "" {
		return apperrors.ValidationError("SSID cannot be empty")
	}
	if len(ssid) > maxSSIDLen {
		return apperrors.ValidationError(fmt.Sprintf("SSID exceeds %d bytes", maxSSIDLen))
	}
	if strings.ContainsAny(ssid, "\r\n") {
		return apperrors.ValidationError("SSID cannot contain line breaks")
	}
	if len(passphrase) < minPassphraseLen || len(passphrase) > maxPassphraseLen {
		return apperrors.ValidationError(fmt.Sprintf(
			"passphrase must be between %d and %d characters", minPassphraseLen, maxPassphraseLen))
	}
	if strings.ContainsAny(passphrase, "\r\n") {
		return apperrors.ValidationError("passphrase cannot contain line breaks")
	}
	return nil
}

// UpdateAccessPoint rewrites the ssid= and wpa_passphrase= lines of
// hostapd.conf through a temp file and an atomic rename, then restarts the
// hostapd service.
func (m *Manager) UpdateAccessPoint(ctx context.Context, ssid, passphrase string) error {
	if err := ValidateAccessPoint(ssid, passphrase); err != nil {
		return err
	}

	data, err := os.ReadFile(m.hostapdConf)
	if err != nil {
		return apperrors.ExternalError("failed to read hostapd config", err).
			WithField("path", m.hostapdConf)
	}

	updated := rewriteHostapdConf(string(data), ssid, passphrase)

	dir := filepath.Dir(m.hostapdConf)
	tmp, err := os.CreateTemp(dir, ".hostapd-*.conf")
	if err != nil {
		return apperrors.ExternalError("failed to create temp config", err)
	}
	if _, err := tmp.WriteString(updated); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperrors.ExternalError("failed to write temp config", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apperrors.ExternalError("failed to close temp config", err)
	}
	if err := os.Rename(tmp.Name(), m.hostapdConf); err != nil {
		os.Remove(tmp.Name())
		return apperrors.ExternalError("failed to replace hostapd config", err)
	}

	if _, err := m.run(ctx, "systemctl", "restart", "hostapd"); err != nil {
		return apperrors.ExternalError("failed to restart hostapd", err)
	}

	slog.Info("Access point updated", "ssid", ssid)
	return nil
}

// rewriteHostapdConf replaces the ssid= and wpa_passphrase= lines, leaving
// everything else untouched.
func rewriteHostapdConf(conf, ssid, passphrase string) string {
	lines := strings.Split(conf, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "ssid="):
			lines[i] = "ssid=" + ssid
		case strings.HasPrefix(line, "wpa_passphrase="):
			lines[i] = "wpa_passphrase=" + passphrase
		}
	}
	return strings.Join(lines, "\n")
}
