package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
owner: alice

store:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: portal_alice
  user: portal
  quota_bytes: 5242880

cache:
  version: pm-ajay-village-portal-v2.1
  origin: https://portal.example.gov.in/
  dir: /var/cache/gramportal
  backend: memory
  fetch_timeout: 10s
  manifest: ["./", "./index.html", "./app.js"]

server:
  port: 9090

sync:
  endpoint: https://portal.example.gov.in/api/submissions
  schedule: "*/10 * * * *"
  tag: offline-sync
  timeout: 15s
  max_attempts: 4

notify:
  slack:
    bot_token: xoxb-test
    channel_id: C123
  discord:
    bot_token: discord-test
    channel_id: "998877"
  command: "notify-send '{{.Title}}' '{{.Body}}'"
`

const minimalYAML = `
owner: bob
`

// clearEnv neutralises GP_* overrides for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GP_STORE_DRIVER", "GP_STORE_PATH", "GP_SERVER_PORT", "GP_SYNC_ENDPOINT", "GP_SLACK_BOT_TOKEN", "GP_DISCORD_BOT_TOKEN"} {
		t.Setenv(k, "")
	}
}

func TestParse_FullConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Owner != "alice" {
		t.Errorf("Owner = %q, want %q", cfg.Owner, "alice")
	}
	if cfg.Store.Driver != "mysql" {
		t.Errorf("Store.Driver = %q, want mysql", cfg.Store.Driver)
	}
	if cfg.Store.Host != "10.0.0.5" || cfg.Store.Port != 3307 {
		t.Errorf("Store host:port = %s:%d, want 10.0.0.5:3307", cfg.Store.Host, cfg.Store.Port)
	}
	if cfg.Store.Database != "portal_alice" {
		t.Errorf("Store.Database = %q, want portal_alice", cfg.Store.Database)
	}
	if cfg.Store.User != "portal" {
		t.Errorf("Store.User = %q, want portal", cfg.Store.User)
	}
	if cfg.Store.QuotaBytes != 5242880 {
		t.Errorf("Store.QuotaBytes = %d, want 5242880", cfg.Store.QuotaBytes)
	}
	if cfg.Cache.Version != "pm-ajay-village-portal-v2.1" {
		t.Errorf("Cache.Version = %q", cfg.Cache.Version)
	}
	if cfg.Cache.Origin != "https://portal.example.gov.in" {
		t.Errorf("Cache.Origin = %q, want trailing slash trimmed", cfg.Cache.Origin)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.FetchTimeout != 10*time.Second {
		t.Errorf("Cache.FetchTimeout = %v, want 10s", cfg.Cache.FetchTimeout)
	}
	if len(cfg.Cache.Manifest) != 3 {
		t.Errorf("len(Cache.Manifest) = %d, want 3", len(cfg.Cache.Manifest))
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Sync.Schedule != "*/10 * * * *" {
		t.Errorf("Sync.Schedule = %q", cfg.Sync.Schedule)
	}
	if cfg.Sync.Tag != "offline-sync" {
		t.Errorf("Sync.Tag = %q, want offline-sync", cfg.Sync.Tag)
	}
	if cfg.Sync.Timeout != 15*time.Second || cfg.Sync.MaxAttempts != 4 {
		t.Errorf("Sync limits = %v, %d; want 15s, 4", cfg.Sync.Timeout, cfg.Sync.MaxAttempts)
	}
	if cfg.Notify.Slack.ChannelID != "C123" {
		t.Errorf("Notify.Slack.ChannelID = %q, want C123", cfg.Notify.Slack.ChannelID)
	}
	if cfg.Notify.Discord.ChannelID != "998877" {
		t.Errorf("Notify.Discord.ChannelID = %q, want 998877", cfg.Notify.Discord.ChannelID)
	}
	if !strings.Contains(cfg.Notify.Command, "notify-send") {
		t.Errorf("Notify.Command = %q", cfg.Notify.Command)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Store.Path != "gramportal.db" {
		t.Errorf("Store.Path = %q, want gramportal.db", cfg.Store.Path)
	}
	if cfg.Store.Database != "gramportal_bob" {
		t.Errorf("Store.Database = %q, want gramportal_bob", cfg.Store.Database)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.Version != DefaultCacheVersion {
		t.Errorf("Cache.Version = %q, want %q", cfg.Cache.Version, DefaultCacheVersion)
	}
	if cfg.Cache.Origin != "http://localhost:8080" {
		t.Errorf("Cache.Origin = %q, want http://localhost:8080", cfg.Cache.Origin)
	}
	if cfg.Cache.Backend != "disk" {
		t.Errorf("Cache.Backend = %q, want disk", cfg.Cache.Backend)
	}
	if len(cfg.Cache.Manifest) != len(DefaultManifest) {
		t.Errorf("len(Cache.Manifest) = %d, want %d", len(cfg.Cache.Manifest), len(DefaultManifest))
	}
	if cfg.Cache.FetchTimeout != 30*time.Second {
		t.Errorf("Cache.FetchTimeout = %v, want 30s", cfg.Cache.FetchTimeout)
	}
	if cfg.Sync.Endpoint != "http://localhost:8080/api/submissions" {
		t.Errorf("Sync.Endpoint = %q", cfg.Sync.Endpoint)
	}
	if cfg.Sync.Schedule != "*/5 * * * *" {
		t.Errorf("Sync.Schedule = %q", cfg.Sync.Schedule)
	}
	if cfg.Sync.Tag != "background-form-sync" {
		t.Errorf("Sync.Tag = %q", cfg.Sync.Tag)
	}
	if cfg.Sync.Timeout != 30*time.Second {
		t.Errorf("Sync.Timeout = %v, want 30s", cfg.Sync.Timeout)
	}
	if cfg.Sync.MaxAttempts != 10 {
		t.Errorf("Sync.MaxAttempts = %d, want 10", cfg.Sync.MaxAttempts)
	}
}

func TestParse_DefaultManifestNotAliased(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Cache.Manifest[0] = "./changed"
	if DefaultManifest[0] != "./" {
		t.Errorf("DefaultManifest mutated through config: %q", DefaultManifest[0])
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GP_STORE_PATH", "/tmp/override.db")
	t.Setenv("GP_SERVER_PORT", "7070")

	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != "/tmp/override.db" {
		t.Errorf("Store.Path = %q, want override", cfg.Store.Path)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Cache.Origin != "http://localhost:7070" {
		t.Errorf("Cache.Origin = %q, want derived from overridden port", cfg.Cache.Origin)
	}
}

func TestParse_EnvBadPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("GP_SERVER_PORT", "eighty")

	_, err := Parse([]byte(minimalYAML))
	if err == nil {
		t.Fatal("expected error for non-numeric GP_SERVER_PORT")
	}
	if !strings.Contains(err.Error(), "GP_SERVER_PORT") {
		t.Errorf("error = %q, want to mention GP_SERVER_PORT", err.Error())
	}
}

func TestParse_MissingOwner(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("server:\n  port: 8080\n"))
	if err == nil {
		t.Fatal("expected error for missing owner")
	}
	if !strings.Contains(err.Error(), "owner is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "owner is required")
	}
}

func TestParse_UnsupportedDriver(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("owner: a\nstore:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), `store.driver "postgres"`) {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_NegativeSyncLimits(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("owner: a\nsync:\n  timeout: -1s\n  max_attempts: -2\n"))
	if err == nil {
		t.Fatal("expected error for negative sync limits")
	}
	for _, want := range []string{"sync.timeout", "sync.max_attempts"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want to contain %q", err.Error(), want)
		}
	}
}

func TestParse_SlackTokenWithoutChannel(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("owner: a\nnotify:\n  slack:\n    bot_token: xoxb-1\n"))
	if err == nil {
		t.Fatal("expected error for slack token without channel")
	}
	if !strings.Contains(err.Error(), "notify.slack.channel_id") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	clearEnv(t)
	yaml := `
store:
  driver: oracle
cache:
  backend: redis
server:
  port: 70000
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"owner is required", "store.driver", "cache.backend", "server.port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want to contain %q", err.Error(), want)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("owner: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "gramportal.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Owner != "bob" {
		t.Errorf("Owner = %q, want bob", cfg.Owner)
	}
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "gramportal.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GP_SYNC_ENDPOINT=https://sync.example/api\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not overwrite variables that are already set, and clearEnv
	// set this one to empty, so unset it for the load.
	os.Unsetenv("GP_SYNC_ENDPOINT")
	t.Cleanup(func() { os.Unsetenv("GP_SYNC_ENDPOINT") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sync.Endpoint != "https://sync.example/api" {
		t.Errorf("Sync.Endpoint = %q, want value from .env", cfg.Sync.Endpoint)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/gramportal.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}
