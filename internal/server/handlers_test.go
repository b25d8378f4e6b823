package server

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/auth"
	"github.com/dustinteng/idx-flowmeter/internal/config"
	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockSettings struct {
	mu       sync.Mutex
	settings domain.Settings
	saveErr  error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultSettings()}
}

func (m *mockSettings) Current() domain.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *mockSettings) SaveCalibration(density, magnetOffset float64) error {
	if density <= 0 {
		return domain.ErrInvalidDensity
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Density = density
	m.settings.MagnetOffset = magnetOffset
	return nil
}

func (m *mockSettings) Baseline() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Baseline
}

func (m *mockSettings) SetBaseline(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Baseline = v
}

type mockFlow struct {
	liters     float64
	resetCalls int
}

func (m *mockFlow) LitersFlowed(_ context.Context) float64 { return m.liters }

func (m *mockFlow) Reset(_ context.Context) { m.resetCalls++ }

type mockNetwork struct {
	status      domain.NetworkStatus
	updateErr   error
	updateCalls []struct{ SSID, Passphrase string }
}

func (m *mockNetwork) Status(_ context.Context) domain.NetworkStatus { return m.status }

func (m *mockNetwork) UpdateAccessPoint(_ context.Context, ssid, passphrase string) error {
	m.updateCalls = append(m.updateCalls, struct{ SSID, Passphrase string }{ssid, passphrase})
	return m.updateErr
}

// --- Test helpers ---

func newTestServer(t *testing.T, st domain.SettingsStore, fl domain.FlowService, nw domain.NetworkManager) *Server {
	t.Helper()

	dashTmpl := template.Must(template.New("dashboard.html").Parse(
		`Dashboard density={{.Density}} offset={{.MagnetOffset}} liters={{.Liters}}{{if .Error}} error={{.Error}}{{end}}`))
	authTmpl := template.Must(template.New("wifi_auth.html").Parse(
		`WifiAuth{{if .Error}} error={{.Error}}{{end}}`))
	settingsTmpl := template.Must(template.New("wifi_settings.html").Parse(
		`WifiSettings ap={{.APSSID}}{{if .Error}} error={{.Error}}{{end}}`))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	clock := clockwork.NewFakeClock()
	cfg := &config.Config{
		AppEnv:         "test",
		Port:           "8080",
		SessionSecret:  "test-secret",
		WifiPassword:   "3333",
		WifiSessionTTL: time.Hour,
	}

	srv := &Server{
		echo:                 e,
		config:               cfg,
		settings:             st,
		flow:                 fl,
		network:              nw,
		tokens:               auth.NewTokenStore(time.Hour, clock),
		clock:                clock,
		sessionStore:         store,
		wifiLoginLimiter:     newRateLimiter(1000, 1000),
		startTime:            clock.Now(),
		dashboardTemplate:    dashTmpl,
		wifiAuthTemplate:     authTmpl,
		wifiSettingsTemplate: settingsTmpl,
	}
	srv.registerRoutes()

	return srv
}

// authenticate issues a token and returns a request cookie carrying it.
func authenticate(t *testing.T, srv *Server) []*http.Cookie {
	t.Helper()

	token := srv.tokens.Issue()

	req := httptest.NewRequest(http.MethodGet, "/wifi", nil)
	rec := httptest.NewRecorder()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyWifiToken] = token.String()
	require.NoError(t, session.Save(req, rec))

	return rec.Result().Cookies()
}
