package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio/internal/handler"
	"github.com/matthewbaird/portfolio/internal/types"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <ownerID>",
		Short: "Print one owner payload as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			rawAsOf, _ := cmd.Flags().GetString("as-of")
			asOf, err := handler.ParseAsOf(rawAsOf)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			owner := types.ParseRef(args[0])
			var payload any
			switch kind {
			case "dashboard":
				payload, err = a.svc.Dashboard(ctx, owner, asOf)
			case "financials":
				payload, err = a.svc.Financials(ctx, owner, asOf)
			case "tenants":
				payload, err = a.svc.CurrentTenants(ctx, owner, asOf)
			case "applications":
				payload, err = a.svc.Applications(ctx, owner)
			default:
				return fmt.Errorf("unknown report kind %q", kind)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().String("kind", "dashboard", "dashboard, financials, tenants or applications")
	cmd.Flags().String("as-of", "", "reference date, YYYY-MM-DD or RFC 3339 (default now)")
	return cmd
}
