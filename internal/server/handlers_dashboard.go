package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/labstack/echo/v4"
)

const networkStatusTimeout = 3 * time.Second

// dashboardData carries everything the dashboard template renders. Density
// and MagnetOffset are strings so rejected input can be echoed back exactly
// as the user typed it.
type dashboardData struct {
	Density      string
	MagnetOffset string
	Liters       float64
	Error        string
	Notice       string

	MAC               string
	SSID              string
	AvailableNetworks []string
	APActive          bool
	APSSID            string
}

func (s *Server) dashboardData(ctx context.Context) dashboardData {
	cfg := s.settings.Current()

	netCtx, cancel := context.WithTimeout(ctx, networkStatusTimeout)
	defer cancel()
	status := s.network.Status(netCtx)

	return dashboardData{
		Density:           formatFloat(cfg.Density),
		MagnetOffset:      formatFloat(cfg.MagnetOffset),
		Liters:            s.flow.LitersFlowed(ctx),
		MAC:               status.MAC,
		SSID:              status.SSID,
		AvailableNetworks: status.AvailableNetworks,
		APActive:          status.APActive,
		APSSID:            status.APSSID,
	}
}

func (s *Server) handleDashboard(c echo.Context) error {
	data := s.dashboardData(c.Request().Context())
	return renderTemplate(c, 200, s.dashboardTemplate, data)
}

// handleDashboardForm serves both buttons of the dashboard form: the counter
// reset and the calibration save.
func (s *Server) handleDashboardForm(c echo.Context) error {
	ctx := c.Request().Context()

	if c.FormValue("reset_flow") != "" {
		s.flow.Reset(ctx)
		return c.Redirect(302, "/")
	}

	rawDensity := strings.TrimSpace(c.FormValue("density"))
	rawOffset := strings.TrimSpace(c.FormValue("magnet_offset"))

	density, err := strconv.ParseFloat(rawDensity, 64)
	if err != nil {
		return s.renderFormError(c, 400, rawDensity, rawOffset, "Density must be a number.")
	}
	magnetOffset, err := strconv.ParseFloat(rawOffset, 64)
	if err != nil {
		return s.renderFormError(c, 400, rawDensity, rawOffset, "Magnet offset must be a number.")
	}

	if err := s.settings.SaveCalibration(density, magnetOffset); err != nil {
		if errors.Is(err, domain.ErrInvalidDensity) {
			return s.renderFormError(c, 400, rawDensity, rawOffset, "Density must be greater than zero.")
		}
		slog.Error("Failed to save settings", "error", err)
		return s.renderFormError(c, 500, rawDensity, rawOffset, "Settings could not be saved. Please try again.")
	}

	return c.Redirect(302, "/")
}

// renderFormError re-renders the dashboard with the rejected input echoed
// back and an inline error message. Bad values are never silently dropped.
func (s *Server) renderFormError(c echo.Context, status int, rawDensity, rawOffset, msg string) error {
	data := s.dashboardData(c.Request().Context())
	data.Density = rawDensity
	data.MagnetOffset = rawOffset
	data.Error = msg
	return renderTemplate(c, status, s.dashboardTemplate, data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
