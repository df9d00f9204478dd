// Package config loads omero-render settings from omero-render.toml, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by viper.
const EnvPrefix = "OMERO_RENDER"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig is the default OMERO.web connection.
type ServerConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Group    string        `mapstructure:"group"`
	Insecure bool          `mapstructure:"insecure"`
	Timeout  time.Duration `mapstructure:"timeout"`
	ServerID int           `mapstructure:"server_id"`
}

type ClientConfig struct {
	BatchSize        int     `mapstructure:"batch_size"`
	ThumbnailSize    int     `mapstructure:"thumbnail_size"`
	ThumbnailWorkers int     `mapstructure:"thumbnail_workers"`
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateBurst        int     `mapstructure:"rate_burst"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

var logFormats = []string{"console", "json"}

// New returns a viper instance with defaults, environment binding and the
// config file loaded. configPath overrides the search path; a missing file
// is only an error when it was named explicitly. A .env file in the working
// directory is loaded into the environment first.
func New(configPath string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("omero-render")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "omero-render"))
		}
		v.AddConfigPath("/etc/omero-render")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.user", "")
	v.SetDefault("server.group", "")
	v.SetDefault("server.insecure", false)
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.server_id", 1)

	v.SetDefault("client.batch_size", 100)
	v.SetDefault("client.thumbnail_size", 96)
	v.SetDefault("client.thumbnail_workers", 4)
	v.SetDefault("client.rate_limit", 0.0)
	v.SetDefault("client.rate_burst", 1)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port must be between 0 and 65535")
	}
	if cfg.Server.Timeout <= 0 {
		return nil, fmt.Errorf("server.timeout must be positive")
	}
	if cfg.Client.BatchSize < 1 {
		return nil, fmt.Errorf("client.batch_size must be at least 1")
	}
	if cfg.Client.ThumbnailSize < 1 {
		return nil, fmt.Errorf("client.thumbnail_size must be at least 1")
	}
	if cfg.Client.ThumbnailWorkers < 1 {
		return nil, fmt.Errorf("client.thumbnail_workers must be at least 1")
	}
	if cfg.Client.RateLimit < 0 {
		return nil, fmt.Errorf("client.rate_limit must not be negative")
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		return nil, fmt.Errorf("log.format must be one of: %s", strings.Join(logFormats, ", "))
	}

	return &cfg, nil
}
