package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/portal"
)

func newLoginCmd() *cobra.Command {
	var (
		configPath string
		in         portal.LoginInput
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Record the official using the portal",
		Long:  "Stores the official id and department as the current user. Credentials are not verified.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			id, err := p.Login(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", id.OfficialID, id.Department)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&in.OfficialID, "official-id", "", "official id (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (required)")
	cmd.Flags().StringVar(&in.Department, "department", "", "department (required)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			if err := p.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newSelectCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "select [village-id]",
		Short: "Select the village forms default to",
		Long:  "Selects a village by id. Without an argument, prints the current user and selected village.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := p.SelectVillage(args[0]); err != nil {
					return err
				}
			}

			user, ok, err := p.CurrentUser()
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "User: %s (%s)\n", user.OfficialID, user.Department)
			} else {
				fmt.Fprintln(out, "User: -")
			}
			v, ok, err := p.SelectedVillage()
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "Village: %s %s\n", v.ID, v.Name)
			} else {
				fmt.Fprintln(out, "Village: -")
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
