// Package config provides configuration utilities for the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/common"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults applied when neither the config file nor the environment sets a value.
const (
	DefaultDatabasePath    = "$HOME/.local/share/eshop/eshop.db"
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the typed view of the viper settings.
type Config struct {
	DatabasePath    string
	CitiesFile      string
	ServerAddr      string
	ImportMode      pipeline.MergeMode
	ImportChunkSize int
	ShutdownTimeout time.Duration
}

// SetDefaults registers the default values with viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("import.mode", string(pipeline.MergeAppend))
	v.SetDefault("import.chunk_size", pipeline.DefaultChunkSize)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
}

// LoadDotEnv reads KEY=value pairs from the given files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(ExpandPath(f)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds a Config from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	mode, err := pipeline.ParseMergeMode(v.GetString("import.mode"))
	if err != nil {
		return nil, fmt.Errorf("%w: import.mode: %w", common.ErrInvalidConfig, err)
	}

	cfg := &Config{
		DatabasePath:    ExpandPath(v.GetString("database.path")),
		CitiesFile:      ExpandPath(v.GetString("geo.cities_file")),
		ServerAddr:      v.GetString("server.addr"),
		ImportMode:      mode,
		ImportChunkSize: v.GetInt("import.chunk_size"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.ImportChunkSize <= 0 {
		return fmt.Errorf("%w: import.chunk_size must be positive, got %d", common.ErrInvalidConfig, c.ImportChunkSize)
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("%w: server.addr", common.ErrMissingConfig)
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	return nil
}
