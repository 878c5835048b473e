package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/portal"
)

func newRequirementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requirement",
		Short: "Requirement and issue report commands",
	}

	cmd.AddCommand(newRequirementSubmitCmd(portal.KindRequirement))
	cmd.AddCommand(newRequirementSubmitCmd(portal.KindIssue))
	cmd.AddCommand(newRequirementListCmd())
	cmd.AddCommand(newRequirementAdvanceCmd())
	return cmd
}

func newRequirementSubmitCmd(kind string) *cobra.Command {
	var (
		configPath string
		in         lifecycle.RequirementInput
		deferred   bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a village requirement",
		Long:  "Records a requirement in the pending status at the head of the requirement list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deferred {
				return deferSubmission(cmd, configPath, kind, in)
			}
			return runRequirementSubmit(cmd, configPath, kind, in)
		},
	}
	if kind == portal.KindIssue {
		cmd.Use = "issue"
		cmd.Short = "Report an infrastructure issue"
		cmd.Long = "Records an infrastructure issue as a pending requirement in the infrastructure_issue category."
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&in.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "description (required)")
	cmd.Flags().StringVar(&in.Priority, "priority", "medium", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&in.VillageName, "village", "", "village name")
	if kind == portal.KindRequirement {
		cmd.Flags().StringVar(&in.Category, "category", "other", "category (water, education, health, road, electricity, sanitation, housing, other)")
	}
	cmd.Flags().BoolVar(&deferred, "defer", false, "queue the submission for later delivery")
	return cmd
}

func runRequirementSubmit(cmd *cobra.Command, configPath, kind string, in lifecycle.RequirementInput) error {
	_, _, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	submit := p.SubmitRequirement
	if kind == portal.KindIssue {
		submit = p.SubmitIssueReport
	}
	r, err := submit(in)
	if r == nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s %s: %s [%s, %s]\n", kind, r.ID, r.Title, r.Category, r.Priority)
	return reportFault(cmd, err)
}

func newRequirementListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requirements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequirementList(cmd, configPath, status, asJSON)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func runRequirementList(cmd *cobra.Command, configPath, status string, asJSON bool) error {
	_, _, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	reqs := p.Requirements()
	if status != "" {
		want, err := lifecycle.ParseRequirementStatus(status)
		if err != nil {
			return err
		}
		filtered := reqs[:0]
		for _, r := range reqs {
			if r.Status == want {
				filtered = append(filtered, r)
			}
		}
		reqs = filtered
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, reqs)
	}
	if len(reqs) == 0 {
		fmt.Fprintln(out, "No requirements found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRIORITY\tSTATUS\tVILLAGE")
	for _, r := range reqs {
		village := r.VillageName
		if village == "" {
			village = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Title, r.Category, r.Priority, lifecycle.StatusLabel(string(r.Status)), village)
	}
	return w.Flush()
}

func newRequirementAdvanceCmd() *cobra.Command {
	var (
		configPath string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a requirement to its next status",
		Long:  "Moves a requirement one step along pending → review → approved → implementation → completed. Skipping a step is rejected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequirementAdvance(cmd, configPath, args[0], to)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&to, "to", "", "target status (default: the next status)")
	return cmd
}

func runRequirementAdvance(cmd *cobra.Command, configPath, id, to string) error {
	var next models.RequirementStatus
	if to != "" {
		s, err := lifecycle.ParseRequirementStatus(to)
		if err != nil {
			return err
		}
		next = s
	}

	_, _, p, err := openPortal(configPath)
	if err != nil {
		return err
	}
	r, err := p.AdvanceRequirement(id, next)
	if r == nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Requirement %s is now %s (%d%%)\n", r.ID,
		lifecycle.StatusLabel(string(r.Status)),
		lifecycle.ProgressPercentage(string(r.Status), lifecycle.KindRequirement))
	return reportFault(cmd, err)
}
