package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/queue"
	"github.com/zulandar/gramportal/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		noSync     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal web server",
		Long: `Serves the portal front end and JSON API. Unless --no-sync is given, the
deferred submission queue is flushed on the configured schedule while the
server runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port, !noSync)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not flush the deferred submission queue")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, withSync bool) error {
	cfg, gormDB, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}
	if _, err := p.SeedSampleData(); err != nil {
		log.Printf("serve: seed sample data: %v", err)
	}

	cache, err := newCache(cfg, gormDB)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if withSync {
		q, d := newQueue(cfg, gormDB)
		sched, err := queue.NewScheduler(q, d, cfg.Sync.Schedule)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
	}

	return server.Start(ctx, server.StartOpts{
		Portal:   p,
		Port:     port,
		Out:      cmd.OutOrStdout(),
		Cache:    cache,
		Notifier: notifier,
	})
}
