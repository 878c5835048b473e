package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/assetcache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Offline asset cache commands",
	}

	cmd.AddCommand(newCacheInstallCmd())
	cmd.AddCommand(newCacheActivateCmd())
	cmd.AddCommand(newCacheFetchCmd())
	cmd.AddCommand(newCacheStatusCmd())
	cmd.AddCommand(newCacheCheckCmd())
	return cmd
}

func newCacheInstallCmd() *cobra.Command {
	var (
		configPath string
		activate   bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Fetch every manifest asset into the current cache version",
		Long:  "Fetches every asset in the manifest from the configured origin. Installation is all-or-nothing: one failed asset leaves the version uninstalled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			c, err := newCache(cfg, gormDB)
			if err != nil {
				return err
			}
			if err := c.Install(cmd.Context(), fetchClient(cfg)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installed %s (%d assets from %s)\n", c.Version(), len(cfg.Cache.Manifest), cfg.Cache.Origin)
			if !activate {
				return nil
			}
			if err := c.Activate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Activated %s\n", c.Version())
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&activate, "activate", false, "activate the version after installing")
	return cmd
}

func newCacheActivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Activate the current cache version and purge all others",
		Long:  "Activates the current cache version and purges every other stored version. Activation is refused, and nothing is purged, unless every manifest asset is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			c, err := newCache(cfg, gormDB)
			if err != nil {
				return err
			}
			if err := c.Activate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Activated %s\n", c.Version())
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newCacheFetchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Fetch an asset through the cache",
		Long:  "Fetches a path relative to the origin cache-first: a cached response is returned without touching the network, a miss is fetched and stored. Until the current version is completely installed every fetch goes to the network and nothing is stored or purged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			c, err := newCache(cfg, gormDB)
			if err != nil {
				return err
			}
			if err := c.Resume(cmd.Context()); err != nil &&
				!errors.Is(err, assetcache.ErrNotInstalled) && !errors.Is(err, assetcache.ErrIncomplete) {
				return err
			}

			client := fetchClient(cfg)
			client.Transport = &assetcache.Transport{Cache: c}
			u := cfg.Cache.Origin + "/" + strings.TrimPrefix(strings.TrimPrefix(args[0], "."), "/")
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, u, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("fetch %s: %s", u, resp.Status)
			}
			_, err = io.Copy(cmd.OutOrStdout(), resp.Body)
			return err
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newCacheStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List stored cache versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			c, err := newCache(cfg, gormDB)
			if err != nil {
				return err
			}
			versions, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSTATE")
			for _, v := range versions {
				fmt.Fprintf(w, "%s\t%s\n", v.Version, v.State)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newCacheCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the manifest against the assets the root document references",
		Long:  "Fetches the origin's root document and reports stylesheets, scripts and web manifests it references that the cache manifest does not list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, cfg.Cache.Origin+"/", nil)
			if err != nil {
				return err
			}
			resp, err := fetchClient(cfg).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("fetch %s/: %s", cfg.Cache.Origin, resp.Status)
			}

			missing, err := assetcache.CheckManifest(resp.Body, cfg.Cache.Manifest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(missing) == 0 {
				fmt.Fprintln(out, "Manifest covers every referenced asset.")
				return nil
			}
			fmt.Fprintln(out, "Missing from manifest:")
			for _, m := range missing {
				fmt.Fprintf(out, "  %s\n", m)
			}
			return fmt.Errorf("%d referenced assets missing from manifest", len(missing))
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
