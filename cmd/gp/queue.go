package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/queue"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Deferred submission queue commands",
	}

	cmd.AddCommand(newQueueListCmd())
	cmd.AddCommand(newQueueFlushCmd())
	cmd.AddCommand(newQueueRunCmd())
	cmd.AddCommand(newQueueReviveCmd())
	return cmd
}

func newQueueListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions waiting for delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			q, _ := newQueue(cfg, gormDB)
			pending, err := q.Pending(cmd.Context())
			if err != nil {
				return err
			}
			dead, err := q.DeadLetters(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "Queue is empty.")
			} else if err := printSubmissions(out, pending); err != nil {
				return err
			}
			if len(dead) > 0 {
				fmt.Fprintf(out, "\nDead letters (%d), not retried:\n", len(dead))
				return printSubmissions(out, dead)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newQueueFlushCmd() *cobra.Command {
	var (
		configPath string
		endpoint   string
	)

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Deliver every queued submission now",
		Long:  "Delivers queued submissions to the sync endpoint. A submission is removed only after the endpoint accepts it; failures stay queued for the next flush. Submissions the endpoint rejects with a 4xx, or that fail sync.max_attempts times, are dead-lettered.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			q, d := newQueue(cfg, gormDB)
			if endpoint != "" {
				d.Endpoint = endpoint
			}
			res, err := q.Flush(cmd.Context(), d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Delivered %d, failed %d\n", res.Delivered, res.Failed)
			if res.DeadLettered > 0 {
				fmt.Fprintf(out, "Dead-lettered %d; see 'gp queue list'\n", res.DeadLettered)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "override the configured sync endpoint")
	return cmd
}

func newQueueRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Flush the queue on schedule until interrupted",
		Long:  "Runs the sync scheduler in the foreground. SIGHUP requests an immediate flush, the way a connectivity-restored event does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			q, d := newQueue(cfg, gormDB)
			sched, err := queue.NewScheduler(q, d, cfg.Sync.Schedule)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			out := cmd.OutOrStdout()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			go func() {
				for sig := range sigCh {
					if sig == syscall.SIGHUP {
						sched.Signal(cfg.Sync.Tag)
						continue
					}
					fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
					cancel()
					return
				}
			}()

			fmt.Fprintf(out, "Syncing %q to %s on %q\n", cfg.Sync.Tag, cfg.Sync.Endpoint, cfg.Sync.Schedule)
			if err := sched.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newQueueReviveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "revive <token>",
		Short: "Return a dead-lettered submission to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			q, _ := newQueue(cfg, gormDB)
			if err := q.Revive(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revived %s\n", args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func printSubmissions(out io.Writer, subs []queue.Submission) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tKIND\tQUEUED\tATTEMPTS\tLAST ERROR")
	for _, s := range subs {
		lastErr := s.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			s.Token, s.Kind, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Attempts, lastErr)
	}
	return w.Flush()
}
