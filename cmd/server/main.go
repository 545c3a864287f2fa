package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio reconciliation and aggregation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to portfolio.toml (default ./portfolio.toml)")
	rootCmd.PersistentFlags().String("fixtures", "", "serve a JSON snapshot from memory instead of the database")

	rootCmd.AddCommand(serveCmd(), reportCmd())
	return rootCmd
}
