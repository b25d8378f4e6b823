package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// litersPushInterval matches the dashboard's polling cadence.
const litersPushInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local device UI, served and consumed on the LAN
	},
}

// handleGetLiters answers the dashboard's poll. Idempotent and cheap; the
// flow service absorbs sensor stalls, so this never blocks for long.
func (s *Server) handleGetLiters(c echo.Context) error {
	liters := s.flow.LitersFlowed(c.Request().Context())
	return c.JSON(200, map[string]float64{"liters": liters})
}

// handleLitersFeed pushes the liters reading over a WebSocket at the same
// cadence the poll endpoint is normally hit with.
func (s *Server) handleLitersFeed(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade liters feed", "error", err)
		return nil
	}
	defer conn.Close()

	// Read pump: only there to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := s.clock.NewTicker(litersPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			liters := s.flow.LitersFlowed(c.Request().Context())
			if err := conn.WriteJSON(map[string]float64{"liters": liters}); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}
