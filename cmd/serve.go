package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"talos/api"
	"talos/bootstrap"
	"talos/storage"
)

func newServeCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only report API",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(app.Config.Storage.SQLitePath, app.Sugar)
			if err != nil {
				return err
			}
			defer store.Close()

			server := api.NewServer(app.Config.API, store, app.Sugar)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				app.Sugar.Infow("shutting down", "signal", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}
}
