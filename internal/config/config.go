// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string. Empty selects the
	// in-memory user store.
	DatabaseDSN string `json:"database_dsn"`

	// DatabaseDriver is the database/sql driver name: "postgres" or "pgx".
	DatabaseDriver string `json:"database_driver"`

	// RedisURL enables rate limiting of the id number lookup when set.
	RedisURL string `json:"redis_url"`

	// RateLimit is the number of lookups allowed per client per RateWindow.
	RateLimit int `json:"rate_limit"`

	// RateWindow is the rate limiting window.
	RateWindow Duration `json:"rate_window"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// TrustProxy takes client addresses from X-Forwarded-For / X-Real-IP.
	// The rate limiter keys on that address, so enable it only behind a
	// proxy that overwrites these headers.
	TrustProxy bool `json:"trust_proxy"`

	// LogLevel is the minimum zap log level.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration read from JSON as a string such as "1m".
type Duration struct {
	time.Duration
}

// UnmarshalJSON parses a duration string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// TLSEnabled reports whether HTTPS is configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

func register(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.DatabaseDriver, "driver", "postgres", "sql driver: postgres or pgx")
	fs.StringVar(&o.RedisURL, "r", "", "redis URL for rate limiting")
	fs.IntVar(&o.RateLimit, "rate-limit", 30, "id lookups per client per window")
	fs.DurationVar(&o.RateWindow.Duration, "rate-window", time.Minute, "rate limiting window")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", "", "path to TLS private key")
	fs.BoolVar(&o.TrustProxy, "trust-proxy", false, "trust X-Forwarded-For / X-Real-IP from a reverse proxy")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	options, err := parse(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while parsing config: %v", err)
	}
	return options
}

// parse applies, in increasing precedence: flag defaults, the JSON config
// file, explicitly set flags, then environment variables.
func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	register(fs, options)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			// Flags given on the command line win over the file.
			if err := fs.Parse(args); err != nil {
				return nil, err
			}
		}
	}

	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if redisURL := getenv("REDIS_URL"); redisURL != "" {
		options.RedisURL = redisURL
	}

	if options.RateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", options.RateLimit)
	}
	if options.RateWindow.Duration <= 0 {
		return nil, fmt.Errorf("rate window must be positive, got %s", options.RateWindow)
	}

	return options, nil
}
