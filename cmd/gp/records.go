package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/portal"
)

func newHouseholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "household",
		Short: "Household survey commands",
	}
	cmd.AddCommand(newHouseholdAddCmd())
	return cmd
}

func newHouseholdAddCmd() *cobra.Command {
	var (
		configPath string
		in         lifecycle.HouseholdInput
		deferred   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a household survey",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deferred {
				return deferSubmission(cmd, configPath, portal.KindHousehold, in)
			}
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			h, err := p.SubmitHouseholdSurvey(in)
			if h == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded household %s (%s, %d members)\n", h.HouseholdID, h.HeadName, h.Members())
			return reportFault(cmd, err)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&in.VillageID, "village-id", "", "village id")
	cmd.Flags().StringVar(&in.HouseholdID, "household-id", "", "household id (required)")
	cmd.Flags().StringVar(&in.HeadName, "head", "", "head of household (required)")
	cmd.Flags().StringVar(&in.FamilyMembers, "members", "", "number of family members")
	cmd.Flags().StringToStringVar(&in.SurveyData, "data", nil, "survey answers as key=value pairs")
	cmd.Flags().BoolVar(&deferred, "defer", false, "queue the submission for later delivery")
	return cmd
}

func newSurveyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Survey file commands",
	}
	cmd.AddCommand(newSurveyUploadCmd())
	return cmd
}

func newSurveyUploadCmd() *cobra.Command {
	var (
		configPath string
		villageID  string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Record an uploaded survey file",
		Long:  "Records the name and size of a survey file in the uploaded status. The file itself is not stored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			s, err := p.SubmitSurveyUpload(lifecycle.FileMeta{
				VillageID: villageID,
				FileName:  filepath.Base(args[0]),
				Size:      info.Size(),
			})
			if s == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded survey %s (%s, %d bytes)\n", s.ID, s.FileName, s.FileSize)
			return reportFault(cmd, err)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&villageID, "village-id", "", "village id")
	return cmd
}

func newAssessmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessment",
		Short: "Infrastructure assessment commands",
	}
	cmd.AddCommand(newAssessmentSubmitCmd())
	return cmd
}

func newAssessmentSubmitCmd() *cobra.Command {
	var (
		configPath string
		in         lifecycle.AssessmentInput
		deferred   bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an infrastructure assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deferred {
				return deferSubmission(cmd, configPath, portal.KindAssessment, in)
			}
			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			pr, err := p.SubmitAssessment(in)
			if pr == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded assessment %s for village %s\n", pr.ID, pr.VillageID)
			return reportFault(cmd, err)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&in.VillageID, "village-id", "", "village id")
	cmd.Flags().StringVar(&in.Date, "date", "", "assessment date")
	cmd.Flags().StringVar(&in.Officer, "officer", "", "assessing officer")
	cmd.Flags().StringToStringVar(&in.Data, "data", nil, "assessment answers as key=value pairs")
	cmd.Flags().BoolVar(&deferred, "defer", false, "queue the submission for later delivery")
	return cmd
}
