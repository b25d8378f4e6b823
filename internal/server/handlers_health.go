package server

import (
	"github.com/dustinteng/idx-flowmeter/internal/version"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleHealthz(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status":  "ok",
		"uptime":  uptime,
		"version": version.Get(),
	})
}
