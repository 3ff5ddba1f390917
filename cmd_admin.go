package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/client"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/spf13/cobra"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Show case counts and the latest reports",
	RunE:  runCases,
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <report-id> <status>",
	Short: "Move a case to Open, In Progress, Resolved or Escalated",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetStatus,
}

var volunteerCmd = &cobra.Command{
	Use:   "volunteer",
	Short: "Register a volunteer",
	RunE:  runVolunteer,
}

func init() {
	casesCmd.Flags().IntP("limit", "n", 20, "number of reports to list (0 for all)")

	volunteerCmd.Flags().String("name", "", "full name")
	volunteerCmd.Flags().String("email", "", "email address")
	volunteerCmd.Flags().String("phone", "", "phone number")
	volunteerCmd.Flags().StringSlice("interests", nil, "areas of interest, comma separated")
}

func apiClient() *client.Client {
	return client.New(cfg.API.BaseURL, cfg.API.Timeout, logger)
}

func runCases(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	d, err := apiClient().FetchDashboard(cmd.Context())
	if err != nil {
		return err
	}
	printDashboard(cmd.OutOrStdout(), d, limit)
	return nil
}

func printDashboard(out io.Writer, d *client.Dashboard, limit int) {
	fmt.Fprintf(out, "Total %d  Open %d  In Progress %d  Resolved %d  Escalated %d  Volunteers %d\n\n",
		d.Total, d.Open, d.InProgress, d.Resolved, d.Escalated, len(d.Volunteers))

	rows := d.Reports
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	if len(rows) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBMITTED\tTYPE\tPRIORITY\tSTATUS\tLOCATION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID.Hex(),
			r.SubmittedAt.Local().Format(time.DateTime),
			r.Type.Title(),
			r.AIPriority,
			r.Status,
			r.Location)
	}
	_ = w.Flush()
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	id, status := args[0], args[1]
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid status %q: use %q, %q, %q or %q", status,
			models.StatusOpen, models.StatusInProgress, models.StatusResolved, models.StatusEscalated)
	}
	r, err := apiClient().UpdateStatus(cmd.Context(), id, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", r.ID.Hex(), r.Status)
	return nil
}

func runVolunteer(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var p models.VolunteerPayload
	p.Name, _ = f.GetString("name")
	p.Email, _ = f.GetString("email")
	p.Phone, _ = f.GetString("phone")
	p.Interests, _ = f.GetStringSlice("interests")

	v, err := apiClient().RegisterVolunteer(cmd.Context(), p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", v.Name, v.ID.Hex())
	return nil
}
