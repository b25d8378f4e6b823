package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustinteng/idx-flowmeter/internal/auth"
	"github.com/dustinteng/idx-flowmeter/internal/config"
	"github.com/dustinteng/idx-flowmeter/internal/domain"
	"github.com/dustinteng/idx-flowmeter/internal/flow"
	"github.com/dustinteng/idx-flowmeter/internal/logging"
	"github.com/dustinteng/idx-flowmeter/internal/network"
	"github.com/dustinteng/idx-flowmeter/internal/sensor"
	"github.com/dustinteng/idx-flowmeter/internal/server"
	"github.com/dustinteng/idx-flowmeter/internal/settings"
	"github.com/jonboulle/clockwork"
)

const tokenEvictionInterval = 1 * time.Minute

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupSensor(cfg *config.Config, clock clockwork.Clock) (domain.LiterSource, func()) {
	switch cfg.SensorSource {
	case config.SensorSourceSimulated:
		slog.Warn("Using simulated flow sensor")
		return sensor.NewSimulatedSource(0.05, clock), func() {}
	default:
		src, err := sensor.NewMQTTSource(cfg.MQTTBrokerURL, cfg.MQTTTopic, cfg.MQTTClientID, cfg.LitersPerPulse)
		if err != nil {
			slog.Error("Failed to connect to sensor broker", "error", err)
			os.Exit(1)
		}
		return src, src.Close
	}
}

func runGracefulShutdown(srv *server.Server, cleanup ...func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, fn := range cleanup {
			fn()
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	store := settings.Open(cfg.SettingsFile)

	source, closeSource := setupSensor(cfg, clock)
	flowSvc := flow.NewService(source, store, cfg.SensorReadTimeout)

	netMgr := network.NewManager(cfg.WifiInterface, cfg.HostapdConf)

	tokens := auth.NewTokenStore(cfg.WifiSessionTTL, clock)
	stopEviction := tokens.StartEvictionTimer(tokenEvictionInterval)

	srv, err := server.NewServer(cfg, store, flowSvc, netMgr, tokens, clock)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, stopEviction, closeSource)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
