package cli

import (
	"github.com/spf13/cobra"

	"trade-journal/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over HTTP",
		Long:  "Start the HTTP API. Stops gracefully on interrupt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Service()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.Server.ListenAddr
			}

			srv := api.NewServer(svc, api.Options{
				ListenAddr:     addr,
				RequestTimeout: app.Config.Server.RequestTimeout,
				Version:        Version,
			}, app.Logger)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.listen_addr)")
	return cmd
}
