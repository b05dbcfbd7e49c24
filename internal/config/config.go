package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"reviewant/internal/logger"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	envPrefix  = "REVIEWANT_"
	envCfgFile = "REVIEWANT_CONFIG"
)

type Config struct {
	HDevAPIKey       string `koanf:"hdev_api_key"`
	HDevBaseURL      string `koanf:"hdev_base_url"`
	Region           string `koanf:"region"`
	DBDriver         string `koanf:"db_driver"`
	DBDSN            string `koanf:"db_dsn"`
	ServerPort       string `koanf:"server_port"`
	LogLevel         string `koanf:"log_level"`
	APIRatePerMinute int    `koanf:"api_rate_per_minute"`
	SentryDSN        string `koanf:"sentry_dsn"`
	Environment      string `koanf:"environment"`
	SiteURL          string `koanf:"site_url"`

	DiscordWebhookID    string `koanf:"discord_webhook_id"`
	DiscordWebhookToken string `koanf:"discord_webhook_token"`
}

func Defaults() Config {
	return Config{
		HDevBaseURL:      "https://api.henrikdev.xyz",
		Region:           "ap",
		DBDriver:         "sqlite3",
		DBDSN:            "reviewant.db",
		ServerPort:       "8080",
		LogLevel:         "info",
		APIRatePerMinute: 90,
		Environment:      "development",
		SiteURL:          "https://reviewant.games",
	}
}

// Load layers defaults, an optional YAML file named by REVIEWANT_CONFIG and
// REVIEWANT_* environment variables, lowest precedence first.
func Load(log zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	k := koanf.New(".")

	if path := os.Getenv(envCfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.ApplyLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping default")
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("server_port", cfg.ServerPort).
		Str("region", cfg.Region).
		Str("log_level", cfg.LogLevel).
		Bool("sentry", cfg.SentryDSN != "").
		Bool("discord", cfg.DiscordEnabled()).
		Msg("configuration loaded")

	return &cfg, nil
}

func (c Config) Validate() error {
	if c.HDevAPIKey == "" {
		return errors.New("hdev_api_key is required")
	}
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("db_dsn must not be empty")
	}
	if c.APIRatePerMinute <= 0 {
		return errors.New("api_rate_per_minute must be positive")
	}
	return nil
}

func (c Config) DiscordEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

var Module = fx.Provide(Load)
