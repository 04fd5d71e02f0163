// Package config loads server and client settings from defaults, an optional
// zaloga.yaml file, a local .env file and ZALOGA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Server holds the HTTP server settings.
type Server struct {
	DB              string        `mapstructure:"db"`
	Addr            string        `mapstructure:"addr"`
	Log             string        `mapstructure:"log"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	ResetTTL        time.Duration `mapstructure:"reset_ttl"`
	ResetURL        string        `mapstructure:"reset_url"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
}

// Client holds the terminal client settings.
type Client struct {
	APIURL    string        `mapstructure:"api_url"`
	StatePath string        `mapstructure:"state_path"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoadServer reads the server configuration.
func LoadServer() (*Server, error) {
	v, err := newViper(func(v *viper.Viper) {
		v.SetDefault("db", "zaloga.sqlite3")
		v.SetDefault("addr", ":8080")
		v.SetDefault("log", "")
		v.SetDefault("token_ttl", "168h")
		v.SetDefault("reset_ttl", "1h")
		v.SetDefault("reset_url", "http://localhost:8080/reset-password")
		v.SetDefault("cors_origins", "*")
		v.SetDefault("cleanup_schedule", "@every 1h")
	})
	if err != nil {
		return nil, err
	}

	var cfg Server
	if err := unmarshal(v, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &cfg, nil
}

// LoadClient reads the client configuration.
func LoadClient() (*Client, error) {
	v, err := newViper(func(v *viper.Viper) {
		v.SetDefault("api_url", "http://localhost:8080/api")
		v.SetDefault("state_path", defaultStatePath())
		v.SetDefault("timeout", "0s")
	})
	if err != nil {
		return nil, err
	}

	var cfg Client
	if err := unmarshal(v, &cfg); err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}

func newViper(setDefaults func(*viper.Viper)) (*viper.Viper, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigName("zaloga")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "zaloga"))
	}

	v.SetEnvPrefix("ZALOGA")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}
	return v, nil
}

func unmarshal(v *viper.Viper, target any) error {
	err := v.Unmarshal(target, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

// loadDotEnv populates the environment from a local .env file if one exists.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".zaloga-state.json"
	}
	return filepath.Join(dir, "zaloga", "state.json")
}
