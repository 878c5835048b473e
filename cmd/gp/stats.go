package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			d := p.Stats()

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, d)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Villages:\t%d\n", d.TotalVillages)
			fmt.Fprintf(w, "Adarsh Grams:\t%d\n", d.AdarshGrams)
			fmt.Fprintf(w, "Ongoing projects:\t%d\n", d.OngoingProjects)
			fmt.Fprintf(w, "Beneficiaries:\t%d\n", d.TotalBeneficiaries)
			fmt.Fprintf(w, "Population:\t%d\n", d.TotalPopulation)
			fmt.Fprintf(w, "Requirements:\t%d (%d approved)\n", d.TotalRequirements, d.ApprovedRequirements)
			fmt.Fprintf(w, "Surveys:\t%d\n", d.Surveys)
			for _, s := range d.VillageStatus {
				fmt.Fprintf(w, "  village %s:\t%d\n", s.Status, s.Count)
			}
			for _, s := range d.RequirementStatus {
				fmt.Fprintf(w, "  requirement %s:\t%d\n", s.Status, s.Count)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newActivityCmd() *cobra.Command {
	var (
		configPath string
		n          int
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the most recent submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			items := p.RecentActivity(n)

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No activity yet.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tTITLE\tSTATUS")
			for _, a := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.At.Format("2006-01-02 15:04"), a.Kind, a.Title, a.Status)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&n, "limit", "n", 5, "number of entries")
	return cmd
}
