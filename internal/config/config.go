// Package config provides configuration management for go-guweb.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
)

var AppVersion = "-unset-" // will be set at build time

const (
	DefaultWebPort    = 8080
	DefaultSessionTTL = 30 * 24 * time.Hour
	DefaultBcryptCost = 12
)

// MainConfig holds the main configuration for go-guweb
type MainConfig struct {
	// Web interface settings
	Web WebConfig `json:"web"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Redis is optional; an empty Addr disables it
	Redis RedisConfig `json:"redis"`

	// Rate limit for login and register submissions (needs Redis)
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Registration enables the /register form. The store's
	// registration_enabled config row overrides it at runtime.
	Registration bool `json:"registration"`

	DisallowedNames     []string `json:"disallowed_names"`
	DisallowedPasswords []string `json:"disallowed_passwords"`

	DiscordServer string `json:"discord_server"` // chat invite URL for /discord
	BcryptCost    int    `json:"bcrypt_cost"`
	GeoIPDatabase string `json:"geoip_database,omitempty"` // path to a GeoLite2 Country mmdb
	DocsDir       string `json:"docs_dir"`
	AMQPURL       string `json:"amqp_url,omitempty"` // registration events; empty disables

	AppVersion string `json:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort     int           `json:"listen_port"`
	SSL            bool          `json:"ssl"`
	CertFile       string        `json:"cert_file,omitempty"`
	KeyFile        string        `json:"key_file,omitempty"`
	Debug          bool          `json:"debug"` // Enable debug logging for sessions/auth
	SessionSecret  string        `json:"session_secret"`
	SessionTTL     time.Duration `json:"session_ttl"`
	TrustedProxies []string      `json:"trusted_proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string `json:"driver"` // "sqlite3" or "mysql"
	DSN    string `json:"dsn"`    // full DSN; when empty for mysql it is built from the fields below

	User string `json:"user,omitempty"`
	Pass string `json:"pass,omitempty"`
	Host string `json:"host,omitempty"`
	Port string `json:"port,omitempty"`
	Name string `json:"name,omitempty"`

	MaxOpenConns int `json:"max_open_conns"`
}

// RedisConfig holds the optional Redis connection settings
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// RateLimitConfig configures the token bucket in front of login/register
type RateLimitConfig struct {
	Enabled        bool          `json:"enabled"`
	Capacity       int           `json:"capacity"`
	RefillInterval time.Duration `json:"refill_interval"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	return &MainConfig{
		AppVersion: AppVersion,
		Web: WebConfig{
			ListenPort:     DefaultWebPort,
			SessionTTL:     DefaultSessionTTL,
			TrustedProxies: []string{"127.0.0.1", "::1"},
		},
		Database: DatabaseConfig{
			Driver:       "sqlite3",
			DSN:          "data/guweb.sq3",
			Port:         "3306",
			MaxOpenConns: 25,
		},
		Redis: RedisConfig{
			Prefix: "guweb",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			Capacity:       10,
			RefillInterval: 6 * time.Second,
		},
		Registration:        true,
		DisallowedNames:     []string{"mrekk", "vaxei", "btmc", "cookiezi"},
		DisallowedPasswords: []string{"password", "minilamp"},
		DiscordServer:       "https://discord.com",
		BcryptCost:          DefaultBcryptCost,
		DocsDir:             "docs",
	}
}

// LoadFile overlays the JSON file at path onto cfg.
// A missing file is not an error.
func (cfg *MainConfig) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[CONFIG]: no config file at %s, using defaults", path)
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings the server can't start without
func (cfg *MainConfig) Validate() error {
	switch cfg.Database.Driver {
	case "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Web.SessionSecret == "" {
		return fmt.Errorf("session secret is required")
	}
	if cfg.Web.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", cfg.Web.SessionTTL)
	}
	if cfg.Web.SSL && (cfg.Web.CertFile == "" || cfg.Web.KeyFile == "") {
		return fmt.Errorf("SSL enabled but cert_file or key_file not specified in config")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range", cfg.BcryptCost)
	}
	return nil
}

// DataSourceName returns the DSN passed to sql.Open for the configured driver
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" || d.Driver != "mysql" {
		return d.DSN
	}
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Pass
	mc.Net = "tcp"
	mc.Addr = d.Host + ":" + d.Port
	mc.DBName = d.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
