// Package config provides YAML-based configuration loading for the portal.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultCacheVersion names the asset cache generation shipped with this build.
// Changing any asset requires bumping it.
const DefaultCacheVersion = "pm-ajay-village-portal-v2.0"

// DefaultManifest is the fixed list of application assets cached on install.
var DefaultManifest = []string{
	"./",
	"./index.html",
	"./styles.css",
	"./app.js",
	"./dashboard.js",
	"./forms.js",
	"./map.js",
	"./manifest.json",
}

// Config is the top-level portal configuration, loaded from gramportal.yaml.
type Config struct {
	Owner  string       `yaml:"owner"`
	Store  StoreConfig  `yaml:"store"`
	Cache  CacheConfig  `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
	Sync   SyncConfig   `yaml:"sync"`
	Notify NotifyConfig `yaml:"notify"`
}

// StoreConfig selects and locates the durable store.
type StoreConfig struct {
	Driver     string `yaml:"driver"` // sqlite (default) or mysql
	Path       string `yaml:"path"`   // sqlite file
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Database   string `yaml:"database"`
	User       string `yaml:"user"`
	QuotaBytes int    `yaml:"quota_bytes"` // 0 = unlimited
}

// CacheConfig controls the versioned asset cache.
type CacheConfig struct {
	Version      string        `yaml:"version"`
	Origin       string        `yaml:"origin"`
	Dir          string        `yaml:"dir"`
	Backend      string        `yaml:"backend"` // disk (default), memory, sql
	Manifest     []string      `yaml:"manifest"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// SyncConfig controls delivery of submissions queued while offline.
type SyncConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Schedule    string        `yaml:"schedule"`
	Tag         string        `yaml:"tag"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// NotifyConfig lists optional push notification sinks.
type NotifyConfig struct {
	Slack   ChannelConfig `yaml:"slack"`
	Discord ChannelConfig `yaml:"discord"`
	Command string        `yaml:"command"`
}

// ChannelConfig identifies a chat channel reachable with a bot token.
type ChannelConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file next to the config is loaded into the process environment
// first; variables already set are not overwritten.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: load %s: %v", envPath, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. GP_* environment
// variables override the file.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides selected fields from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("GP_STORE_DRIVER", &c.Store.Driver)
	str("GP_STORE_PATH", &c.Store.Path)
	str("GP_SYNC_ENDPOINT", &c.Sync.Endpoint)
	str("GP_SLACK_BOT_TOKEN", &c.Notify.Slack.BotToken)
	str("GP_DISCORD_BOT_TOKEN", &c.Notify.Discord.BotToken)

	if v, ok := lookup("GP_SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: GP_SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Path == "" {
		c.Store.Path = "gramportal.db"
	}
	if c.Store.Host == "" {
		c.Store.Host = "127.0.0.1"
	}
	if c.Store.Port == 0 {
		c.Store.Port = 3306
	}
	if c.Store.User == "" {
		c.Store.User = "root"
	}
	if c.Store.Database == "" && c.Owner != "" {
		c.Store.Database = "gramportal_" + c.Owner
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Cache.Version == "" {
		c.Cache.Version = DefaultCacheVersion
	}
	if c.Cache.Origin == "" {
		c.Cache.Origin = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.Cache.Origin = strings.TrimRight(c.Cache.Origin, "/")
	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(".gramportal", "cache")
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "disk"
	}
	if len(c.Cache.Manifest) == 0 {
		c.Cache.Manifest = append([]string(nil), DefaultManifest...)
	}
	if c.Cache.FetchTimeout == 0 {
		c.Cache.FetchTimeout = 30 * time.Second
	}

	if c.Sync.Endpoint == "" {
		c.Sync.Endpoint = c.Cache.Origin + "/api/submissions"
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = "*/5 * * * *"
	}
	if c.Sync.Tag == "" {
		c.Sync.Tag = "background-form-sync"
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = 30 * time.Second
	}
	if c.Sync.MaxAttempts == 0 {
		c.Sync.MaxAttempts = 10
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Owner == "" {
		errs = append(errs, "owner is required")
	}
	switch c.Store.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported (sqlite, mysql)", c.Store.Driver))
	}
	if c.Store.QuotaBytes < 0 {
		errs = append(errs, "store.quota_bytes must not be negative")
	}
	switch c.Cache.Backend {
	case "disk", "memory", "sql":
	default:
		errs = append(errs, fmt.Sprintf("cache.backend %q is not supported (disk, memory, sql)", c.Cache.Backend))
	}
	for i, p := range c.Cache.Manifest {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("cache.manifest[%d] is empty", i))
		}
	}
	if c.Cache.FetchTimeout < 0 {
		errs = append(errs, "cache.fetch_timeout must not be negative")
	}
	if c.Sync.Timeout < 0 {
		errs = append(errs, "sync.timeout must not be negative")
	}
	if c.Sync.MaxAttempts < 0 {
		errs = append(errs, "sync.max_attempts must not be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.ChannelID == "" {
		errs = append(errs, "notify.slack.channel_id is required with a bot token")
	}
	if c.Notify.Discord.BotToken != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required with a bot token")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
