package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Dashboard: calibration form and counter reset
	s.echo.GET("/", s.handleDashboard)
	s.echo.POST("/", s.handleDashboardForm)

	// Liters reading: polled by the dashboard, plus a push feed
	s.echo.GET("/get_liters", s.handleGetLiters)
	s.echo.GET("/ws/liters", s.handleLitersFeed)

	// WiFi gate (login POST is rate limited against brute force)
	s.echo.GET("/wifi", s.handleWifiPage)
	s.echo.POST("/wifi", s.handleWifiLogin, s.wifiLoginLimiter)
	s.echo.POST("/wifi/update", s.handleWifiUpdate, s.requireWifiAuth)
	s.echo.POST("/wifi/logout", s.handleWifiLogout, s.requireWifiAuth)
}
