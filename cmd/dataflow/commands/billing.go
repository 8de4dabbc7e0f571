package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dataflow/console/internal/core/domain"
)

func newPlansCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Shows and selects subscription plans.",
	}
	cmd.AddCommand(newPlansListCmd(rt), newPlansSelectCmd(rt))
	return cmd
}

func callsLabel(n int64) string {
	if n == domain.Unlimited {
		return "unlimited"
	}
	return fmt.Sprint(n)
}

func newPlansListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the pricing plans.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plans := rt.app.Plans.Plans()
			current := domain.Plan("")
			if u, ok := rt.app.Session.User(); ok {
				current = u.Plan
			}
			rows := make([]table.Row, 0, len(plans))
			for _, p := range plans {
				mark := ""
				if p.ID == current {
					mark = "current"
				}
				rows = append(rows, table.Row{
					p.ID, p.Name, fmt.Sprintf("$%.0f/%s", p.Price, p.Period),
					callsLabel(p.APICalls), strings.Join(p.Features, "; "), mark,
				})
			}
			return rt.emit(cmd.OutOrStdout(), plans,
				table.Row{"ID", "Name", "Price", "API calls", "Features", ""}, rows)
		},
	}
}

func newPlansSelectCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "select <plan>",
		Short: "Subscribes the signed-in account to a plan.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := domain.ParsePlan(args[0])
			if err != nil {
				return err
			}
			sub, err := rt.app.Plans.Select(cmd.Context(), plan)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sub.Message)
			return nil
		},
	}
}

func newAccountCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Shows usage and manages the API key.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "usage",
			Short: "Prints API usage against the plan quota.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				u, err := rt.app.Accounts.Usage(cmd.Context())
				if err != nil {
					return err
				}
				reset := "-"
				if u.ResetDate != nil {
					reset = u.ResetDate.Format("2006-01-02")
				}
				remaining := callsLabel(u.Remaining)
				if u.Unlimited() {
					remaining = "unlimited"
				}
				return rt.emit(cmd.OutOrStdout(), u, table.Row{"Calls", "Quota", "Remaining", "Resets"}, []table.Row{
					{u.APICalls, callsLabel(u.Quota), remaining, reset},
				})
			},
		},
		&cobra.Command{
			Use:   "rotate-key",
			Short: "Regenerates the API key. The old key stops working.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rot, err := rt.app.Accounts.RegenerateAPIKey(cmd.Context())
				if err != nil {
					return err
				}
				return rt.emit(cmd.OutOrStdout(), rot, table.Row{"API key", "Message"}, []table.Row{
					{rot.APIKey, rot.Message},
				})
			},
		},
	)
	return cmd
}

func newEndpointsCmd(rt *runtime) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Prints the public API reference.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var eps []domain.APIEndpoint
			for _, e := range rt.app.Catalog.Endpoints() {
				if category == "" || strings.EqualFold(e.Category, category) {
					eps = append(eps, e)
				}
			}
			rows := make([]table.Row, 0, len(eps))
			for _, e := range eps {
				rows = append(rows, table.Row{e.Category, e.Method, e.Path, e.Description})
			}
			return rt.emit(cmd.OutOrStdout(), eps, table.Row{"Category", "Method", "Path", "Description"}, rows)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	return cmd
}
