package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Sensor source selection values for SENSOR_SOURCE.
const (
	SensorSourceMQTT      = "mqtt"
	SensorSourceSimulated = "simulated"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	SessionSecret string `env:"SESSION_SECRET"`

	// WifiPassword gates the WiFi settings page. Required so it is never
	// shipped hardcoded.
	WifiPassword   string        `env:"WIFI_PASSWORD"`
	WifiSessionTTL time.Duration `env:"WIFI_SESSION_TTL" default:"30m"`

	SettingsFile string `env:"SETTINGS_FILE" default:"flowmeter_config.json"`

	SensorSource      string        `env:"SENSOR_SOURCE" default:"mqtt"`
	SensorReadTimeout time.Duration `env:"SENSOR_READ_TIMEOUT" default:"500ms"`
	LitersPerPulse    float64       `env:"LITERS_PER_PULSE" default:"0.0025"`

	MQTTBrokerURL string `env:"MQTT_BROKER_URL" default:"tcp://localhost:1883"`
	MQTTTopic     string `env:"MQTT_TOPIC" default:"flowmeter/pulses"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" default:"idx-flowmeter"`

	HostapdConf   string `env:"HOSTAPD_CONF" default:"/etc/hostapd/hostapd.conf"`
	WifiInterface string `env:"WIFI_INTERFACE" default:"wlan0"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"SESSION_SECRET": cfg.SessionSecret,
		"WIFI_PASSWORD":  cfg.WifiPassword,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	switch cfg.SensorSource {
	case SensorSourceMQTT, SensorSourceSimulated:
	default:
		return fmt.Errorf("SENSOR_SOURCE must be %q or %q, got %q",
			SensorSourceMQTT, SensorSourceSimulated, cfg.SensorSource)
	}

	if cfg.LitersPerPulse <= 0 {
		return errors.New("LITERS_PER_PULSE must be greater than zero")
	}
	if cfg.SensorReadTimeout <= 0 {
		return errors.New("SENSOR_READ_TIMEOUT must be greater than zero")
	}

	return nil
}
