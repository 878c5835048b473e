package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/config"
	"github.com/zulandar/gramportal/internal/db"
	"github.com/zulandar/gramportal/internal/portal"
	"github.com/zulandar/gramportal/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		noSeed     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the portal database",
		Long:  "Creates the portal database, migrates all tables and seeds the sample village when no village exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, !noSeed)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip the sample village")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string, seed bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config for owner %q from %s\n", cfg.Owner, configPath)

	if cfg.Store.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Store)
		if err != nil {
			return err
		}
		if err := db.CreateDatabase(adminDB, cfg.Store.Database); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Store.Database)
	}

	gormDB, err := db.Open(cfg.Store)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if seed {
		p, err := portal.Open(portal.Options{Store: store.NewGormStore(gormDB, cfg.Store.QuotaBytes)})
		if err != nil {
			return err
		}
		seeded, err := p.SeedSampleData()
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintf(out, "Seeded sample village %q\n", portal.SampleVillage.Name)
		}
	}

	fmt.Fprintln(out, "\nPortal database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the portal database",
		Long: `Deletes every stored collection, session, draft, queued submission and
cached asset, then re-initializes the database from config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	target := cfg.Store.Path
	if cfg.Store.Driver == "mysql" {
		target = cfg.Store.Database
	}
	if !skipConfirm && !confirmReset(cmd, target) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	switch cfg.Store.Driver {
	case "mysql":
		adminDB, err := db.ConnectAdmin(cfg.Store)
		if err != nil {
			return err
		}
		if err := db.DropDatabase(adminDB, cfg.Store.Database); err != nil {
			return err
		}
	default:
		if err := os.Remove(cfg.Store.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", cfg.Store.Path, err)
		}
	}
	fmt.Fprintf(out, "Dropped database %s\n", target)

	return runDBInit(cmd, configPath, true)
}

// confirmReset prompts the user to type "yes" to confirm a destructive reset.
func confirmReset(cmd *cobra.Command, target string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in %q.\n", target)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
