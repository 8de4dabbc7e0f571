// Package commands implements the dataflow command line console.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dataflow/console/internal/app"
	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/infrastructure/config"
	"github.com/dataflow/console/pkg/logger"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// runtime is the state shared by every command of one invocation.
type runtime struct {
	app      *app.App
	output   string
	logLevel string
	stderr   io.Writer
	opts     []app.Option
}

func (rt *runtime) open(ctx context.Context) error {
	if rt.app != nil {
		return nil
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: rt.stderr})

	a, err := app.New(ctx, cfg, log, rt.opts...)
	if err != nil {
		return err
	}
	a.Start(ctx)
	rt.app = a
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

// emit writes v as JSON with -o json and as a table otherwise.
func (rt *runtime) emit(w io.Writer, v any, header table.Row, rows []table.Row) error {
	if rt.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	renderTable(w, header, rows)
	return nil
}

func renderTable(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "dataflow",
		Short:         "dataflow is a command line console for the DataFlow data API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.output != outputTable && rt.output != outputJSON {
				return fmt.Errorf("unknown output %q: want table or json", rt.output)
			}
			return rt.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", outputTable, "output format: table or json")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "overrides DATAFLOW_LOG_LEVEL")

	root.AddCommand(
		newSignInCmd(rt),
		newSignUpCmd(rt),
		newSignOutCmd(rt),
		newWhoAmICmd(rt),
		newDatasetsCmd(rt),
		newScrapeCmd(rt),
		newPlansCmd(rt),
		newAccountCmd(rt),
		newEndpointsCmd(rt),
		newServeCmd(rt),
	)
	return root
}

// Execute runs one invocation with the given arguments and releases every
// connection afterwards.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...app.Option) error {
	rt := &runtime{stderr: stderr, opts: opts}
	root := newRootCmd(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := rt.close(); err == nil {
		err = cerr
	}
	return err
}

func ExecuteContext(ctx context.Context) {
	if err := Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", domain.Message(err))
		os.Exit(1)
	}
}
