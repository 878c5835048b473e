package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/portal"
)

func newVillageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "village",
		Short: "Village profile commands",
	}

	cmd.AddCommand(newVillageCreateCmd())
	cmd.AddCommand(newVillageListCmd())
	cmd.AddCommand(newVillageAdvanceCmd())
	return cmd
}

func newVillageCreateCmd() *cobra.Command {
	var (
		configPath string
		in         lifecycle.ProfileInput
		lat, lng   float64
		deferred   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a village profile",
		Long:  "Registers a village in the registered status. Without --lat/--lng the map location is picked at random inside India's bounding box.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				in.Location = &models.Location{Lat: lat, Lng: lng}
			}
			if deferred {
				return deferSubmission(cmd, configPath, portal.KindVillage, in)
			}
			return runVillageCreate(cmd, configPath, in)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&in.Name, "name", "", "village name (required)")
	cmd.Flags().StringVar(&in.GramPanchayat, "gram-panchayat", "", "gram panchayat (required)")
	cmd.Flags().StringVar(&in.District, "district", "", "district (required)")
	cmd.Flags().StringVar(&in.State, "state", "", "state (required)")
	cmd.Flags().StringVar(&in.TotalPopulation, "population", "", "total population (required)")
	cmd.Flags().StringVar(&in.SCPopulation, "sc-population", "", "scheduled caste population (required)")
	cmd.Flags().StringVar(&in.SCPercentage, "sc-percentage", "", "scheduled caste percentage (required)")
	cmd.Flags().StringVar(&in.CensusCode, "census-code", "", "census village code (required)")
	cmd.Flags().StringVar(&in.VillageType, "type", "rural", "village type (rural, tribal, remote)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().BoolVar(&deferred, "defer", false, "queue the submission for later delivery")
	return cmd
}

func runVillageCreate(cmd *cobra.Command, configPath string, in lifecycle.ProfileInput) error {
	_, _, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	v, err := p.SubmitVillageProfile(in)
	if v == nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registered village %s (%s)\n", v.ID, v.Name)
	fmt.Fprintf(out, "Location: %.4f, %.4f\n", v.Location.Lat, v.Location.Lng)
	return reportFault(cmd, err)
}

func newVillageListCmd() *cobra.Command {
	var (
		configPath               string
		asJSON                   bool
		search, status, progress string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List villages",
		Long:  "Lists villages in registration order. --search matches part of the name, --status one village status and --progress a band such as 25-50.",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := portal.ParseVillageQuery(search, status, progress)
			if err != nil {
				return err
			}
			return runVillageList(cmd, configPath, q, asJSON)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive village name substring")
	cmd.Flags().StringVar(&status, "status", "", "village status (registered, assessment, vdp-approved, implementation, adarsh-gram)")
	cmd.Flags().StringVar(&progress, "progress", "", "progress band (0-25, 25-50, 50-75, 75-100)")
	return cmd
}

func runVillageList(cmd *cobra.Command, configPath string, q portal.VillageQuery, asJSON bool) error {
	_, _, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	villages := p.FindVillages(q)
	if villages == nil {
		villages = []models.Village{}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, villages)
	}
	if len(villages) == 0 {
		fmt.Fprintln(out, "No villages found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDISTRICT\tSTATE\tPOPULATION\tSTATUS\tPROGRESS")
	for _, v := range villages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d%%\n",
			v.ID, v.Name, v.District, v.State, v.TotalPopulation,
			lifecycle.StatusLabel(string(v.Status)),
			lifecycle.ProgressPercentage(string(v.Status), lifecycle.KindVillage))
	}
	return w.Flush()
}

func newVillageAdvanceCmd() *cobra.Command {
	var (
		configPath string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a village to its next status",
		Long:  "Moves a village one step along registered → assessment → vdp-approved → implementation → adarsh-gram. Skipping a step is rejected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVillageAdvance(cmd, configPath, args[0], to)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&to, "to", "", "target status (default: the next status)")
	return cmd
}

func runVillageAdvance(cmd *cobra.Command, configPath, id, to string) error {
	var next models.VillageStatus
	if to != "" {
		s, err := lifecycle.ParseVillageStatus(to)
		if err != nil {
			return err
		}
		next = s
	}

	_, _, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	v, err := p.AdvanceVillage(id, next)
	if v == nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Village %s is now %s (%d%%)\n", v.ID,
		lifecycle.StatusLabel(string(v.Status)),
		lifecycle.ProgressPercentage(string(v.Status), lifecycle.KindVillage))
	return reportFault(cmd, err)
}
