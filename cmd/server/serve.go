package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio/internal/handler"
	"github.com/matthewbaird/portfolio/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			createTables, _ := cmd.Flags().GetBool("create-tables")
			a, err := newApp(ctx, cmd, createTables)
			if err != nil {
				return err
			}
			defer a.close()

			return server.Run(ctx, server.Config{
				Port:    a.cfg.App.Port,
				Handler: handler.NewDashboardHandler(a.svc, a.cfg.Stream.Interval),
				Logger:  a.logger,
			})
		},
	}
	cmd.Flags().Bool("create-tables", false, "create the development schema before serving")
	return cmd
}
