package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/export"
)

func newDatasetsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Browses the dataset catalog.",
	}
	cmd.AddCommand(
		newDatasetsListCmd(rt),
		newDatasetsShowCmd(rt),
		newDatasetsExportCmd(rt),
		newDatasetsDownloadCmd(rt),
	)
	return cmd
}

func datasetRows(ds []domain.Dataset) []table.Row {
	rows := make([]table.Row, 0, len(ds))
	for _, d := range ds {
		premium := ""
		if d.IsPremium {
			premium = "yes"
		}
		rows = append(rows, table.Row{d.ID, d.Name, d.Platform, d.Category, d.RecordCount, d.Size, premium})
	}
	return rows
}

var datasetHeader = table.Row{"ID", "Name", "Platform", "Category", "Records", "Size", "Premium"}

func newDatasetsListCmd(rt *runtime) *cobra.Command {
	var (
		filter  domain.DatasetFilter
		premium string
		remote  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists datasets matching the filters.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(premium) {
			case "", "all":
			case "yes", "true":
				v := true
				filter.Premium = &v
			case "no", "false":
				v := false
				filter.Premium = &v
			default:
				return fmt.Errorf("--premium must be yes, no or all")
			}

			var ds []domain.Dataset
			if remote {
				page, err := rt.app.Catalog.Remote(cmd.Context(), filter)
				if err != nil {
					return err
				}
				ds = page.Datasets
			} else {
				ds = rt.app.Catalog.Datasets(filter)
			}
			return rt.emit(cmd.OutOrStdout(), ds, datasetHeader, datasetRows(ds))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filter.Search, "search", "s", "", "match name or description")
	f.StringVar(&filter.Platform, "platform", "all", "amazon, shopify, ebay, walmart, etsy or all")
	f.StringVar(&filter.Category, "category", "", "exact category")
	f.StringVar(&premium, "premium", "all", "yes, no or all")
	f.IntVar(&filter.Limit, "limit", 0, "maximum number of datasets")
	f.IntVar(&filter.Offset, "offset", 0, "datasets to skip")
	f.BoolVar(&remote, "remote", false, "query the live catalog instead of the bundled one")
	return cmd
}

func lookupDataset(rt *runtime, id string) (domain.Dataset, error) {
	d, ok := rt.app.Catalog.Dataset(id)
	if !ok {
		return domain.Dataset{}, fmt.Errorf("dataset %q not found", id)
	}
	return d, nil
}

func previewRows(t domain.PreviewTable) (table.Row, []table.Row) {
	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = table.Row(r)
	}
	return header, rows
}

func newDatasetsShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Prints a dataset with its preview rows.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := lookupDataset(rt, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := rt.emit(out, d, table.Row{"Field", "Value"}, []table.Row{
				{"ID", d.ID},
				{"Name", d.Name},
				{"Platform", d.Platform},
				{"Category", d.Category},
				{"Description", d.Description},
				{"Records", d.RecordCount},
				{"Size", d.Size},
				{"Updated", d.LastUpdated},
				{"Premium", d.IsPremium},
				{"Tags", strings.Join(d.Tags, ", ")},
			}); err != nil {
				return err
			}
			if rt.output == outputTable && len(d.Preview.Columns) > 0 {
				header, rows := previewRows(d.Preview)
				renderTable(out, header, rows)
			}
			return nil
		},
	}
}

func newDatasetsExportCmd(rt *runtime) *cobra.Command {
	var format, path string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Writes a dataset preview as csv, json or xlsx.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := lookupDataset(rt, args[0])
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if path == "-" {
				return export.Write(cmd.OutOrStdout(), d.Preview, f)
			}
			if path == "" {
				path = d.ID + f.Extension()
			}
			return writeFile(path, func(w io.Writer) error {
				return export.Write(w, d.Preview, f)
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "csv, json or xlsx")
	cmd.Flags().StringVar(&path, "out", "", "output file, - for stdout; defaults to <id>.<format>")
	return cmd
}

func writeFile(path string, write func(io.Writer) error, status io.Writer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(status, "Wrote %s\n", path)
	return nil
}

func newDatasetsDownloadCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "download <id>",
		Short: "Requests a time-limited download link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := rt.app.Catalog.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.emit(cmd.OutOrStdout(), link, table.Row{"Dataset", "URL", "Expires"}, []table.Row{
				{link.DatasetName, link.URL, link.ExpiresAt},
			})
		},
	}
}
