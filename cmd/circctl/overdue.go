package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	appsvcs "github.com/ghuser/bookcirc/services/circulation/application/services"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

func newOverdueCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Print every overdue loan across branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.services().Loans.Overdue(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeOverdueJSON(cmd.OutOrStdout(), report)
			}
			return writeOverdue(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

type overdueLine struct {
	LoanID      string `json:"loan_id"`
	Tenant      string `json:"tenant_id"`
	Member      string `json:"member"`
	Item        string `json:"item"`
	DueDate     string `json:"due_date"`
	DaysOverdue int    `json:"days_overdue"`
}

func overdueLines(report *appsvcs.OverdueReport) []overdueLine {
	lines := make([]overdueLine, 0, len(report.Loans))
	for _, l := range report.Loans {
		lines = append(lines, overdueLine{
			LoanID:      l.ID.String(),
			Tenant:      tenantLabel(l.TenantID.Valid, l.TenantID.UUID.String()),
			Member:      l.MemberNumber,
			Item:        l.ItemTitle,
			DueDate:     models.FormatDate(l.DueDate),
			DaysOverdue: l.DaysOverdue(report.AsOf),
		})
	}
	return lines
}

func tenantLabel(valid bool, id string) string {
	if !valid {
		return "shared"
	}
	return id
}

func writeOverdue(w io.Writer, report *appsvcs.OverdueReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "as of %s: %d overdue\n\n", models.FormatDate(report.AsOf), len(report.Loans))
	fmt.Fprintln(tw, "LOAN\tBRANCH\tMEMBER\tITEM\tDUE\tDAYS")
	for _, l := range overdueLines(report) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", l.LoanID, l.Tenant, l.Member, l.Item, l.DueDate, l.DaysOverdue)
	}
	return tw.Flush()
}

func writeOverdueJSON(w io.Writer, report *appsvcs.OverdueReport) error {
	return jsoniter.ConfigFastest.NewEncoder(w).Encode(map[string]any{
		"as_of": models.FormatDate(report.AsOf),
		"loans": overdueLines(report),
	})
}
