package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vigil/internal/app"
)

func allowlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "Inspect and refresh the crisis resource allowlist",
	}
	cmd.AddCommand(allowlistSyncCmd())
	cmd.AddCommand(allowlistCheckCmd())
	return cmd
}

func allowlistSyncCmd() *cobra.Command {
	var emergency bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the remote allowlist and update the last-known cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Allowlist.Refresh(ctx, emergency)
				if err != nil {
					return fmt.Errorf("refresh failed, %s dataset %s kept: %w", res.Status.Source, res.Status.Version, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%s source=%s entries=%d updated=%t\n",
					res.Status.Version, res.Status.Source, res.Status.Entries, res.Updated)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&emergency, "emergency", false, "Install the remote dataset even if its version is unchanged")
	return cmd
}

// allowlistCheckCmd prints only whether a domain matched, never which
// entry or category matched it.
func allowlistCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <domain>",
		Short: "Report whether a domain is treated as a crisis resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				result := "not matched"
				if a.Guard.Check(args[0], "") {
					result = "matched"
				}
				fmt.Fprintln(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}
