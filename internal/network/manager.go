// Package network wraps the host's WiFi tooling: interface inspection via
// ip(8), scanning via nmcli(1), and hostapd access point reconfiguration.
// All external commands are context-bounded; any failure degrades to an
// "Unknown" reading instead of an error so page rendering never breaks.
package network

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
)

const unknown = "Unknown"

var macPattern = regexp.MustCompile(`link/ether ([0-9a-f:]{17})`)

// runner abstracts command execution for testing.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Manager implements domain.NetworkManager against the host's ip, nmcli,
// hostapd, and systemctl tooling.
type Manager struct {
	iface       string
	hostapdConf string
	run         runner
}

var _ domain.NetworkManager = (*Manager)(nil)

func NewManager(iface, hostapdConf string) *Manager {
	return &Manager{
		iface:       iface,
		hostapdConf: hostapdConf,
		run:         execRunner,
	}
}

// Status gathers everything the pages show about the device's WiFi state.
func (m *Manager) Status(ctx context.Context) domain.NetworkStatus {
	active, apSSID := m.apStatus(ctx)
	return domain.NetworkStatus{
		MAC:               m.currentMAC(ctx),
		SSID:              m.currentSSID(ctx),
		AvailableNetworks: m.availableNetworks(ctx),
		APActive:          active,
		APSSID:            apSSID,
	}
}

func (m *Manager) currentMAC(ctx context.Context) string {
	out, err := m.run(ctx, "ip", "link", "show", m.iface)
	if err != nil {
		slog.Warn("Failed to read interface MAC", "interface", m.iface, "error", err)
		return unknown
	}
	return parseMAC(string(out))
}

func (m *Manager) currentSSID(ctx context.Context) string {
	out, err := m.run(ctx, "nmcli", "-t", "-f", "ACTIVE,SSID", "dev", "wifi")
	if err != nil {
		slog.Warn("Failed to read current SSID", "error", err)
		return unknown
	}
	return parseActiveSSID(string(out))
}

func (m *Manager) availableNetworks(ctx context.Context) []string {
	out, err := m.run(ctx, "nmcli", "-t", "-f", "SSID", "dev", "wifi")
	if err != nil {
		slog.Warn("Failed to scan for networks", "error", err)
		return nil
	}
	return parseSSIDList(string(out))
}

// apStatus reports whether the AP interface is up and the SSID configured
// in hostapd.conf.
func (m *Manager) apStatus(ctx context.Context) (bool, string) {
	out, err := m.run(ctx, "ip", "addr", "show", m.iface+"_ap")
	if err != nil || !strings.Contains(string(out), "state UP") {
		return false, ""
	}

	data, err := os.ReadFile(m.hostapdConf)
	if err != nil {
		slog.Warn("Failed to read hostapd config", "path", m.hostapdConf, "error", err)
		return true, ""
	}
	return true, parseHostapdSSID(string(data))
}

// --- Output parsing ---

func parseMAC(output string) string {
	match := macPattern.FindStringSubmatch(output)
	if match == nil {
		return unknown
	}
	return match[1]
}

func parseActiveSSID(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if after, ok := strings.CutPrefix(line, "yes:"); ok {
			return after
		}
	}
	return unknown
}

func parseSSIDList(output string) []string {
	seen := make(map[string]struct{})
	var ssids []string
	for _, line := range strings.Split(output, "\n") {
		ssid := strings.TrimSpace(line)
		if ssid == "" {
			continue
		}
		if _, ok := seen[ssid]; ok {
			continue
		}
		seen[ssid] = struct{}{}
		ssids = append(ssids, ssid)
	}
	sort.Strings(ssids)
	return ssids
}

func parseHostapdSSID(conf string) string {
	for _, line := range strings.Split(conf, "\n") {
		if after, ok := strings.CutPrefix(line, "ssid="); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}
