package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/andyleap/finchconnect/internal/finch"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Config holds all configuration options
type Config struct {
	// Server config
	Port     string `long:"port" env:"PORT" default:"3000" description:"Server port"`
	BaseURL  string `long:"base-url" env:"BASE_URL" description:"Public base URL of this service, used to build the redirect URI"`
	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`

	Finch struct {
		ClientID      string        `long:"finch-client-id" env:"FINCH_CLIENT_ID" description:"Finch application client ID"`
		ClientSecret  string        `long:"finch-client-secret" env:"FINCH_CLIENT_SECRET" description:"Finch application client secret"`
		APIURL        string        `long:"finch-api-url" env:"FINCH_API_URL" default:"https://api.tryfinch.com" description:"Finch API base URL"`
		ConnectURL    string        `long:"finch-connect-url" env:"FINCH_CONNECT_URL" default:"https://connect.tryfinch.com" description:"Finch Connect base URL"`
		Timeout       time.Duration `long:"finch-timeout" env:"FINCH_TIMEOUT" default:"10s" description:"Timeout for each outbound Finch call"`
		ConnectConfig string        `long:"connect-config" env:"CONNECT_CONFIG" description:"YAML file with Connect widget options"`
	} `group:"Finch Options"`

	// Storage config
	StorageMode string `long:"storage-mode" env:"STORAGE_MODE" default:"filesystem" choice:"memory" choice:"filesystem" choice:"redis" choice:"s3" choice:"postgres" description:"Connection storage backend"`

	// Filesystem storage
	DataPath string `long:"data-path" env:"DATA_PATH" default:"./data" description:"Filesystem storage directory"`

	// S3 storage
	S3 struct {
		Endpoint  string `long:"s3-endpoint" env:"S3_ENDPOINT" default:"localhost:9000" description:"S3 endpoint (host:port)"`
		Bucket    string `long:"s3-bucket" env:"S3_BUCKET" default:"finch-connect" description:"S3 bucket name"`
		AccessKey string `long:"s3-access-key" env:"S3_ACCESS_KEY" default:"minioadmin" description:"S3 access key"`
		SecretKey string `long:"s3-secret-key" env:"S3_SECRET_KEY" default:"minioadmin" description:"S3 secret key"`
		UseSSL    bool   `long:"s3-use-ssl" env:"S3_USE_SSL" description:"Use SSL for S3 connections"`
	} `group:"S3 Storage Options"`

	// Redis config
	Redis struct {
		Addr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
		Password string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
		DB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	} `group:"Redis Options"`

	Postgres struct {
		DSN string `long:"postgres-dsn" env:"POSTGRES_DSN" default:"postgres://localhost:5432/finch?sslmode=disable" description:"Postgres connection string"`
	} `group:"Postgres Options"`
}

// RedirectURI is the callback URI registered with Finch
func (c *Config) RedirectURI() string {
	return strings.TrimSuffix(c.BaseURL, "/") + finch.CallbackPath
}

// SlogLevel maps the configured log level to slog
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LoadConfig parses configuration from a .env file, environment variables and
// command line flags, later sources winning
func LoadConfig(args []string) (*Config, error) {
	// a missing .env is fine, real env vars are not overridden
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var config Config

	parser := flags.NewParser(&config, flags.Default)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the callback cannot work without
func (c *Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	if c.Finch.ClientID == "" {
		missing = append(missing, "FINCH_CLIENT_ID")
	}
	if c.Finch.ClientSecret == "" {
		missing = append(missing, "FINCH_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
