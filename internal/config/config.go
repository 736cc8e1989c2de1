package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

type Config struct {
	ModuleID string `yaml:"module_id"`
	Env      string `yaml:"env"` // "dev" | "prod"

	// AllowAll grants every well-formed credential. Only honoured in dev.
	AllowAll        bool     `yaml:"allow_all"`
	AuthorizedCards []string `yaml:"authorized_cards"`

	Timing struct {
		CycleMs            int `yaml:"cycle_ms"`
		UnlockHoldMs       int `yaml:"unlock_hold_ms"`
		DwellMs            int `yaml:"dwell_ms"`
		MotionStabilityMs  int `yaml:"motion_stability_ms"`
		TelemetryIntervalS int `yaml:"telemetry_interval_s"`
	} `yaml:"timing"`

	Hardware struct {
		Driver string `yaml:"driver"` // "serial" | "sim"
		Port   string `yaml:"port"`
		Baud   int    `yaml:"baud"`
	} `yaml:"hardware"`

	DB struct {
		Path string `yaml:"path"` // empty keeps everything in memory
	} `yaml:"db"`

	State struct {
		Path string `yaml:"path"` // empty disables override persistence
	} `yaml:"state"`

	Retention struct {
		TelemetryDays      int `yaml:"telemetry_days"` // 0 = keep forever
		PruneIntervalHours int `yaml:"prune_interval_hours"`
	} `yaml:"retention"`

	HTTP struct {
		Listen         string   `yaml:"listen"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	GRPC struct {
		Listen string `yaml:"listen"` // empty disables the health server
	} `yaml:"grpc"`

	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		Broker      string `yaml:"broker"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
		ClientID    string `yaml:"client_id"`
	} `yaml:"mqtt"`

	MDNS struct {
		Enabled  bool   `yaml:"enabled"`
		Instance string `yaml:"instance"`
	} `yaml:"mdns"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() Config {
	var c Config
	c.ModuleID = "door-001"
	c.Env = "dev"

	c.Timing.CycleMs = 50
	c.Timing.UnlockHoldMs = 3000
	c.Timing.DwellMs = 2000
	c.Timing.TelemetryIntervalS = 60

	c.Hardware.Driver = "sim"
	c.Hardware.Baud = 115200

	c.DB.Path = "./data/portunus.db"
	c.State.Path = "./data/portunus-state.db"

	c.Retention.TelemetryDays = 30
	c.Retention.PruneIntervalHours = 6

	c.HTTP.Listen = ":8080"
	c.GRPC.Listen = ":9090"

	c.MQTT.TopicPrefix = "portunus"

	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load reads the YAML file at path over the defaults, then applies
// PORTUNUS_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ModuleID = getenvDefault("PORTUNUS_MODULE_ID", c.ModuleID)
	c.Env = getenvDefault("PORTUNUS_ENV", c.Env)
	c.AllowAll = getenvBool("PORTUNUS_ALLOW_ALL", c.AllowAll)
	if cards := splitCSV(os.Getenv("PORTUNUS_AUTHORIZED_CARDS")); cards != nil {
		c.AuthorizedCards = cards
	}

	c.Timing.CycleMs = getenvInt("PORTUNUS_CYCLE_MS", c.Timing.CycleMs)
	c.Timing.UnlockHoldMs = getenvInt("PORTUNUS_UNLOCK_HOLD_MS", c.Timing.UnlockHoldMs)
	c.Timing.DwellMs = getenvInt("PORTUNUS_DWELL_MS", c.Timing.DwellMs)
	c.Timing.TelemetryIntervalS = getenvInt("PORTUNUS_TELEMETRY_INTERVAL_S", c.Timing.TelemetryIntervalS)

	c.Hardware.Driver = getenvDefault("PORTUNUS_HW_DRIVER", c.Hardware.Driver)
	c.Hardware.Port = getenvDefault("PORTUNUS_SERIAL_PORT", c.Hardware.Port)
	c.Hardware.Baud = getenvInt("PORTUNUS_SERIAL_BAUD", c.Hardware.Baud)

	c.DB.Path = getenvDefault("PORTUNUS_DB_PATH", c.DB.Path)
	c.State.Path = getenvDefault("PORTUNUS_STATE_PATH", c.State.Path)

	c.Retention.TelemetryDays = getenvInt("PORTUNUS_TELEMETRY_RETENTION_DAYS", c.Retention.TelemetryDays)
	c.Retention.PruneIntervalHours = getenvInt("PORTUNUS_PRUNE_INTERVAL_HOURS", c.Retention.PruneIntervalHours)

	c.HTTP.Listen = getenvDefault("PORTUNUS_HTTP_ADDR", c.HTTP.Listen)
	c.GRPC.Listen = getenvDefault("PORTUNUS_GRPC_ADDR", c.GRPC.Listen)

	c.MQTT.Enabled = getenvBool("PORTUNUS_MQTT_ENABLED", c.MQTT.Enabled)
	c.MQTT.Broker = getenvDefault("PORTUNUS_MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.Username = getenvDefault("PORTUNUS_MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getenvDefault("PORTUNUS_MQTT_PASSWORD", c.MQTT.Password)

	c.Log.Level = getenvDefault("PORTUNUS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenvDefault("PORTUNUS_LOG_FORMAT", c.Log.Format)
}

// Validate reports every problem it finds, joined.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.ModuleID) == "" {
		add("module_id is required")
	}
	switch c.Env {
	case "dev", "prod":
	default:
		add("env must be dev or prod, got %q", c.Env)
	}
	if c.AllowAll && c.Env != "dev" {
		add("allow_all is only permitted in dev")
	}
	if _, err := c.Credentials(); err != nil {
		errs = append(errs, err)
	}

	if c.Timing.CycleMs <= 0 {
		add("timing.cycle_ms must be positive")
	}
	if c.Timing.UnlockHoldMs <= 0 {
		add("timing.unlock_hold_ms must be positive")
	}
	if c.Timing.DwellMs <= 0 {
		add("timing.dwell_ms must be positive")
	}

	switch c.Hardware.Driver {
	case "sim":
	case "serial":
		if c.Hardware.Port == "" {
			add("hardware.port is required for the serial driver")
		}
		if c.Hardware.Baud <= 0 {
			add("hardware.baud must be positive")
		}
	default:
		add("hardware.driver must be serial or sim, got %q", c.Hardware.Driver)
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		add("mqtt.broker is required when mqtt is enabled")
	}
	if c.MDNS.Enabled && c.HTTP.Listen == "" {
		add("mdns needs http.listen to advertise")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// Credentials parses authorized_cards.
func (c Config) Credentials() ([]types.Credential, error) {
	out := make([]types.Credential, 0, len(c.AuthorizedCards))
	for _, s := range c.AuthorizedCards {
		cred, err := types.ParseCredential(s)
		if err != nil {
			return nil, fmt.Errorf("authorized_cards: %w", err)
		}
		out = append(out, cred)
	}
	return out, nil
}

func (c Config) CycleInterval() time.Duration { return ms(c.Timing.CycleMs) }
func (c Config) UnlockHold() time.Duration    { return ms(c.Timing.UnlockHoldMs) }
func (c Config) Dwell() time.Duration         { return ms(c.Timing.DwellMs) }

func (c Config) MotionStability() time.Duration { return ms(c.Timing.MotionStabilityMs) }

func (c Config) TelemetryInterval() time.Duration {
	return time.Duration(c.Timing.TelemetryIntervalS) * time.Second
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
