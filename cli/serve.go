package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/supakorn-kn/propadmin/apis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {

			app := appFrom(cmd.Context())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx, app)
			if err != nil {
				return err
			}
			defer rt.close()

			client := rt.newClient(app.cfg, app.logger)

			g := apis.NewEngine(app.logger.Named("http"))
			if err := apis.RegisterCollections(g, rt.models, client, app.cfg.Query.PageSize); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              app.cfg.Server.Addr(),
				Handler:           apis.WithCORS(g, app.cfg.Server.AllowedOrigins),
				ReadHeaderTimeout: 5 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				app.logger.Info("Starting server",
					zap.String("addr", srv.Addr),
					zap.String("backend", app.cfg.Backend.Driver))
				serveErr <- srv.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			app.logger.Info("Shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().Int("port", 8080, "HTTP listen port")

	return cmd
}
