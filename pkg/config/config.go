package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

const (
	DefaultDatabase = "status.db"
	DefaultEndpoint = "https://www.decathlon.it/it/ChooseStore_getStoresWithAvailability"
	DefaultWorkers  = 16
	DefaultListen   = ":9090"
	DefaultTimeout  = 30

	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

type Email struct {
	Server   string   `json:"server"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type Config struct {
	Database  string `json:"database"`
	Endpoint  string `json:"endpoint"`
	Workers   int    `json:"workers"`
	Fetcher   string `json:"fetcher"`
	UserAgent string `json:"user_agent"`
	// TimeoutSeconds bounds a single request, 0 disables the limit.
	TimeoutSeconds *int   `json:"timeout_seconds"`
	Listen         string `json:"listen"`
	SpecDir        string `json:"spec_dir"`
	Email          *Email `json:"email"`
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadFile reads a json5 configuration file and merges `<name>.local.<ext>`
// over it when present. It returns os.ErrNotExist if neither file exists.
func ReadFile(name string) (Config, error) {
	var out Config
	allNotFound := true

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localFilepath := filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext))
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override Config
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, fmt.Errorf("parse %s: %w", localFilepath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localFilepath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// Load builds the effective configuration: .env, config file, environment
// overrides and finally defaults. A missing config file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}

	cfg, err := ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)

	if cfg.Fetcher != FetcherHTTP && cfg.Fetcher != FetcherBrowser {
		return Config{}, fmt.Errorf("unknown fetcher %q (want %q or %q)", cfg.Fetcher, FetcherHTTP, FetcherBrowser)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if val := os.Getenv("PESTERER_DATABASE"); val != "" {
		cfg.Database = val
	}
	if val := os.Getenv("PESTERER_ENDPOINT"); val != "" {
		cfg.Endpoint = val
	}
	if val := os.Getenv("PESTERER_FETCHER"); val != "" {
		cfg.Fetcher = val
	}
	if val := os.Getenv("PESTERER_LISTEN"); val != "" {
		cfg.Listen = val
	}
	if val := os.Getenv("PESTERER_WORKERS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("PESTERER_WORKERS: %w", err)
		}
		cfg.Workers = parsed
	}
	if val := os.Getenv("PESTERER_SMTP_PASSWORD"); val != "" && cfg.Email != nil {
		cfg.Email.Password = val
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Fetcher == "" {
		cfg.Fetcher = FetcherHTTP
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.SpecDir == "" {
		cfg.SpecDir = "./"
	}
	if cfg.TimeoutSeconds == nil {
		timeout := DefaultTimeout
		cfg.TimeoutSeconds = &timeout
	}
	if cfg.Email != nil && cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
}
