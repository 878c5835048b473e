package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/notify"
)

func newPushCmd() *cobra.Command {
	var (
		configPath string
		p          notify.Payload
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send a push notification to every configured sink",
		Long:  "Sends a notification to the configured Slack, Discord and command sinks. Missing fields take the portal defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			n, err := newNotifier(cfg)
			if err != nil {
				return err
			}
			if n.Sinks() == 0 {
				return fmt.Errorf("no notification sinks configured")
			}
			res := n.Push(cmd.Context(), p)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sent %q\n", res.Notification.Title)
			if len(res.Delivered) > 0 {
				fmt.Fprintf(out, "Delivered: %s\n", strings.Join(res.Delivered, ", "))
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("failed sinks: %s", strings.Join(res.Failed, ", "))
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&p.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&p.Body, "body", "", "notification body")
	cmd.Flags().StringVar(&p.URL, "url", "", "page to open on view")
	return cmd
}
