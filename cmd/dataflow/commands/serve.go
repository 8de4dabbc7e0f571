package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataflow/console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the console API over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = rt.app.Config.ListenAddr
			}
			log := logger.Component("serve")
			e := rt.app.Router()
			srv := &http.Server{
				Addr:              addr,
				Handler:           e,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("console api listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			log.Info().Msg("shutting down console api")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			log.Info().Msg("console api stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to DATAFLOW_LISTEN_ADDR")
	return cmd
}
