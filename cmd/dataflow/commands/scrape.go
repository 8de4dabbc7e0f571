package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

const progressEvery = 500 * time.Millisecond

func newScrapeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Submits and tracks custom URL scrapes.",
	}
	cmd.AddCommand(
		newScrapeSubmitCmd(rt),
		newScrapeStatusCmd(rt),
		newScrapeHistoryCmd(rt),
		newScrapeCancelCmd(rt),
	)
	return cmd
}

var scrapeHeader = table.Row{"ID", "Platform", "Status", "Results", "Created", "URL", "Error"}

func scrapeRows(reqs []domain.ScrapeRequest) []table.Row {
	rows := make([]table.Row, 0, len(reqs))
	for _, r := range reqs {
		results := "-"
		if r.ResultCount != nil {
			results = fmt.Sprint(*r.ResultCount)
		}
		rows = append(rows, table.Row{
			r.ID, r.Platform, r.Status, results,
			r.CreatedAt.Local().Format(time.DateTime), r.URL, r.ErrorMessage,
		})
	}
	return rows
}

func newScrapeSubmitCmd(rt *runtime) *cobra.Command {
	var (
		in   ports.SubmitScrapeInput
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Submits a URL for scraping.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.URL = args[0]
			job, err := rt.app.Scrapes.Submit(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted %s\n", job.ID())
			if !wait {
				return nil
			}

			ticker := time.NewTicker(progressEvery)
			defer ticker.Stop()
			last := -1
			for {
				select {
				case <-job.Done():
					req := job.Request()
					if err := job.Outcome(); err != nil {
						return err
					}
					results := 0
					if req.ResultCount != nil {
						results = *req.ResultCount
					}
					fmt.Fprintf(out, "Completed with %d results\n", results)
					return nil
				case <-ticker.C:
					if p := job.Progress(); p != last {
						fmt.Fprintf(out, "%s %3d%%\n", job.Request().Status, p)
						last = p
					}
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
		},
	}
	cmd.Flags().StringVarP(&in.Platform, "platform", "p", "", "amazon, shopify, ebay, walmart or etsy")
	cmd.Flags().StringSliceVar(&in.Fields, "field", nil, "field to extract, repeatable")
	cmd.Flags().StringVar(&in.Webhook, "webhook", "", "URL notified on completion")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the scrape finishes")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func newScrapeStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Prints one scrape from the server history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Scrapes.LoadHistory(cmd.Context(), 100, 0); err != nil {
				return err
			}
			req, ok := rt.app.Scrapes.Get(args[0])
			if !ok {
				return fmt.Errorf("scrape %q: %w", args[0], domain.ErrScrapeNotFound)
			}
			return rt.emit(cmd.OutOrStdout(), req, scrapeHeader, scrapeRows([]domain.ScrapeRequest{req}))
		},
	}
}

func newScrapeHistoryCmd(rt *runtime) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lists past scrapes, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Scrapes.LoadHistory(cmd.Context(), limit, offset); err != nil {
				return err
			}
			reqs := rt.app.Scrapes.Requests()
			return rt.emit(cmd.OutOrStdout(), reqs, scrapeHeader, scrapeRows(reqs))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of scrapes")
	cmd.Flags().IntVar(&offset, "offset", 0, "scrapes to skip")
	return cmd
}

func newScrapeCancelCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancels a scrape that has not finished.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Scrapes.LoadHistory(cmd.Context(), 100, 0); err != nil {
				return err
			}
			if err := rt.app.Scrapes.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])
			return nil
		},
	}
}
