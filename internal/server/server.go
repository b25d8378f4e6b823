package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/auth"
	"github.com/dustinteng/idx-flowmeter/internal/config"
	"github.com/dustinteng/idx-flowmeter/internal/domain"
	apperrors "github.com/dustinteng/idx-flowmeter/internal/errors"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Session keys
const (
	sessionName         = "flowmeter-session"
	sessionKeyWifiToken = "wifi_token"
)

// Brute-force protection on the WiFi gate: a handful of attempts per
// minute per client is plenty for a human typing a password.
const (
	wifiLoginRatePerSecond = 0.2
	wifiLoginBurst         = 5
)

type Server struct {
	echo     *echo.Echo
	config   *config.Config
	settings domain.SettingsStore
	flow     domain.FlowService
	network  domain.NetworkManager
	tokens   *auth.TokenStore
	clock    clockwork.Clock

	sessionStore     *sessions.CookieStore
	wifiLoginLimiter echo.MiddlewareFunc
	startTime        time.Time

	dashboardTemplate    *template.Template
	wifiAuthTemplate     *template.Template
	wifiSettingsTemplate *template.Template
}

func NewServer(cfg *config.Config, settings domain.SettingsStore, flow domain.FlowService, network domain.NetworkManager, tokens *auth.TokenStore, clock clockwork.Clock) (*Server, error) {
	// Parse templates once at startup
	dashboardTmpl, err := template.ParseFiles("web/templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	wifiAuthTmpl, err := template.ParseFiles("web/templates/wifi_auth.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse wifi auth template: %w", err)
	}
	wifiSettingsTmpl, err := template.ParseFiles("web/templates/wifi_settings.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse wifi settings template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	// Session store carrying the WiFi auth token
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.WifiSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:                 e,
		config:               cfg,
		settings:             settings,
		flow:                 flow,
		network:              network,
		tokens:               tokens,
		clock:                clock,
		sessionStore:         sessionStore,
		wifiLoginLimiter:     newRateLimiter(wifiLoginRatePerSecond, wifiLoginBurst),
		startTime:            clock.Now(),
		dashboardTemplate:    dashboardTmpl,
		wifiAuthTemplate:     wifiAuthTmpl,
		wifiSettingsTemplate: wifiSettingsTmpl,
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// renderTemplate renders a template to a buffer first to prevent partial HTML
// from being sent if template execution fails.
func renderTemplate(c echo.Context, status int, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		return c.String(500, "Failed to render page")
	}
	return c.HTMLBlob(status, buf.Bytes())
}
