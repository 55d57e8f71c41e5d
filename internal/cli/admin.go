package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"musicworks/pkg/domain"
)

func newAdminCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Args:  cobra.NoArgs,
		Short: "Administrator views",
	}
	cmd.AddCommand(
		newDashboardCommand(e),
		newUsersCommand(e),
	)
	return cmd
}

func newDashboardCommand(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Args:  cobra.NoArgs,
		Short: "Show totals with the latest works and payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.app.Admin.FetchDashboard(cmd.Context(), limit)
			snap := e.app.Admin.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a := snap.Analytics; a != nil {
				tw := newTable(out)
				fmt.Fprintf(tw, "Users:\t%d\n", a.TotalUsers)
				fmt.Fprintf(tw, "Works:\t%d\n", a.TotalWorks)
				fmt.Fprintf(tw, "Payments:\t%d\n", a.TotalPayments)
				fmt.Fprintf(tw, "Revenue:\t%s\n", domain.FormatAmount(a.Revenue, a.Currency))
				fmt.Fprintf(tw, "Pending reviews:\t%d\n", a.PendingReviews)
				statuses := make([]string, 0, len(a.WorksByStatus))
				for st := range a.WorksByStatus {
					statuses = append(statuses, string(st))
				}
				sort.Strings(statuses)
				for _, st := range statuses {
					fmt.Fprintf(tw, "  %s:\t%d\n", st, a.WorksByStatus[domain.WorkStatus(st)])
				}
				tw.Flush()
			}
			fmt.Fprintln(out, "\nRecent works:")
			printWorks(out, snap.RecentWorks, domain.NewPagination(len(snap.RecentWorks), 1, max(len(snap.RecentWorks), 1)))
			fmt.Fprintln(out, "\nRecent payments:")
			printPayments(out, snap.RecentPayments, domain.NewPagination(len(snap.RecentPayments), 1, max(len(snap.RecentPayments), 1)))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultPageLimit, "how many recent works and payments to show")
	return cmd
}

func newUsersCommand(e *env) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "users",
		Args:  cobra.NoArgs,
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.params()
			if err != nil {
				return err
			}
			e.app.Admin.FetchUsers(cmd.Context(), params)
			snap := e.app.Admin.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), snap.Users, snap.Pagination)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}
