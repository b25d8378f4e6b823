package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/dustinteng/idx-flowmeter/internal/errors"
	"github.com/dustinteng/idx-flowmeter/internal/metrics"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const apUpdateTimeout = 15 * time.Second

// wifiToken extracts and validates the auth token from the client's session.
func (s *Server) wifiToken(c echo.Context) (uuid.UUID, bool) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return uuid.Nil, false
	}

	raw, ok := session.Values[sessionKeyWifiToken].(string)
	if !ok {
		return uuid.Nil, false
	}

	token, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	if !s.tokens.Valid(token) {
		return uuid.Nil, false
	}
	return token, true
}

// requireWifiAuth guards the WiFi-settings-mutating endpoints. A missing or
// invalid token sends the client back to the password prompt; the change is
// never applied.
func (s *Server) requireWifiAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := s.wifiToken(c); !ok {
			return c.Redirect(302, "/wifi")
		}
		return next(c)
	}
}

type wifiAuthData struct {
	Error string
}

type wifiSettingsData struct {
	Error string

	MAC               string
	SSID              string
	AvailableNetworks []string
	APActive          bool
	APSSID            string
}

func (s *Server) wifiSettingsData(ctx context.Context) wifiSettingsData {
	netCtx, cancel := context.WithTimeout(ctx, networkStatusTimeout)
	defer cancel()
	status := s.network.Status(netCtx)

	return wifiSettingsData{
		MAC:               status.MAC,
		SSID:              status.SSID,
		AvailableNetworks: status.AvailableNetworks,
		APActive:          status.APActive,
		APSSID:            status.APSSID,
	}
}

// handleWifiPage renders the settings page for authenticated clients and
// the password prompt for everyone else.
func (s *Server) handleWifiPage(c echo.Context) error {
	if _, ok := s.wifiToken(c); ok {
		data := s.wifiSettingsData(c.Request().Context())
		return renderTemplate(c, 200, s.wifiSettingsTemplate, data)
	}
	return renderTemplate(c, 200, s.wifiAuthTemplate, wifiAuthData{})
}

// handleWifiLogin checks the gate password. The failure message is generic
// on purpose: it must not reveal why the check failed.
func (s *Server) handleWifiLogin(c echo.Context) error {
	password := c.FormValue("password")

	if subtle.ConstantTimeCompare([]byte(password), []byte(s.config.WifiPassword)) != 1 {
		metrics.WifiAuthAttempts.WithLabelValues("failure").Inc()
		slog.Info("WiFi gate authentication failed", "remote", c.RealIP())
		return renderTemplate(c, 401, s.wifiAuthTemplate, wifiAuthData{
			Error: "Authentication failed. Try again.",
		})
	}

	token := s.tokens.Issue()

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session during WiFi login", "error", err)
	}
	session.Values[sessionKeyWifiToken] = token.String()
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		s.tokens.Revoke(token)
		slog.Error("Failed to save session", "error", err)
		return renderTemplate(c, 401, s.wifiAuthTemplate, wifiAuthData{
			Error: "Authentication failed. Try again.",
		})
	}

	metrics.WifiAuthAttempts.WithLabelValues("success").Inc()
	return c.Redirect(302, "/wifi")
}

// handleWifiUpdate applies a new AP SSID and passphrase. Only reachable
// through requireWifiAuth.
func (s *Server) handleWifiUpdate(c echo.Context) error {
	ssid := c.FormValue("ap_ssid")
	passphrase := c.FormValue("ap_password")

	ctx, cancel := context.WithTimeout(c.Request().Context(), apUpdateTimeout)
	defer cancel()

	if err := s.network.UpdateAccessPoint(ctx, ssid, passphrase); err != nil {
		data := s.wifiSettingsData(c.Request().Context())

		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Type == apperrors.TypeValidation {
			data.Error = appErr.Message
			return renderTemplate(c, 400, s.wifiSettingsTemplate, data)
		}

		slog.Error("Failed to update access point", "error", err)
		data.Error = "WiFi settings could not be applied. Please try again."
		return renderTemplate(c, 502, s.wifiSettingsTemplate, data)
	}

	return c.Redirect(302, "/wifi")
}

// handleWifiLogout revokes the client's token and expires its session.
func (s *Server) handleWifiLogout(c echo.Context) error {
	if token, ok := s.wifiToken(c); ok {
		s.tokens.Revoke(token)
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session during logout", "error", err)
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			slog.Error("Failed to create new session during logout", "error", err)
		}
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save logout session", "error", err)
	}

	return c.Redirect(302, "/")
}
