package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/gramportal/internal/assetcache"
	"github.com/zulandar/gramportal/internal/config"
	"github.com/zulandar/gramportal/internal/db"
	"github.com/zulandar/gramportal/internal/notify"
	"github.com/zulandar/gramportal/internal/notify/discord"
	"github.com/zulandar/gramportal/internal/notify/slack"
	"github.com/zulandar/gramportal/internal/portal"
	"github.com/zulandar/gramportal/internal/queue"
	"github.com/zulandar/gramportal/internal/store"
)

const defaultConfigPath = "gramportal.yaml"

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to portal config file")
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Open(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// openPortal loads the config, opens the store and loads every collection.
func openPortal(configPath string) (*config.Config, *gorm.DB, *portal.Portal, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := portal.Open(portal.Options{Store: store.NewGormStore(gormDB, cfg.Store.QuotaBytes)})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, gormDB, p, nil
}

// reportFault prints a storage fault as a warning and swallows it: the
// entity exists in memory but may not have been saved.
func reportFault(cmd *cobra.Command, err error) error {
	var sf *store.StorageFault
	if errors.As(err, &sf) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	return err
}

func newCache(cfg *config.Config, gormDB *gorm.DB) (*assetcache.Cache, error) {
	var backend assetcache.Backend
	switch cfg.Cache.Backend {
	case "memory":
		backend = assetcache.NewMemoryBackend()
	case "sql":
		backend = assetcache.NewSQLBackend(gormDB)
	default:
		b, err := assetcache.NewDiskBackend(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		backend = b
	}
	return assetcache.New(assetcache.Options{
		Version:  cfg.Cache.Version,
		Origin:   cfg.Cache.Origin,
		Manifest: cfg.Cache.Manifest,
		Backend:  backend,
	})
}

func fetchClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Cache.FetchTimeout}
}

// newNotifier builds a Notifier with every configured sink.
func newNotifier(cfg *config.Config) (*notify.Notifier, error) {
	var sinks []notify.Sink
	if cfg.Notify.Slack.BotToken != "" {
		s, err := slack.New(slack.SinkOpts{BotToken: cfg.Notify.Slack.BotToken, ChannelID: cfg.Notify.Slack.ChannelID})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.Notify.Discord.BotToken != "" {
		s, err := discord.New(discord.SinkOpts{BotToken: cfg.Notify.Discord.BotToken, ChannelID: cfg.Notify.Discord.ChannelID})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.Notify.Command != "" {
		sinks = append(sinks, &notify.CommandSink{Command: cfg.Notify.Command})
	}
	return notify.NewNotifier(cfg.Cache.Origin, sinks...), nil
}

// newQueue builds the deferred submission queue and its deliverer. Both the
// HTTP client and each Deliver call are bounded by sync.timeout.
func newQueue(cfg *config.Config, gormDB *gorm.DB) (*queue.Queue, *queue.HTTPDeliverer) {
	q := queue.New(gormDB, cfg.Sync.Tag)
	q.DeliverTimeout = cfg.Sync.Timeout
	q.MaxAttempts = cfg.Sync.MaxAttempts
	d := &queue.HTTPDeliverer{
		Endpoint: cfg.Sync.Endpoint,
		Client:   &http.Client{Timeout: cfg.Sync.Timeout},
	}
	return q, d
}

// deferSubmission queues a submission for later delivery instead of
// applying it locally.
func deferSubmission(cmd *cobra.Command, configPath, kind string, payload any) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	q, _ := newQueue(cfg, gormDB)
	s, err := q.Enqueue(cmd.Context(), kind, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s submission %s for %s\n", kind, s.Token, cfg.Sync.Endpoint)
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
