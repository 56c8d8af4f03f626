package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vigil/internal/app"
	"vigil/internal/notification/models"
)

func flushCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "flush <hourly|daily>",
		Short:     "Flush a digest queue",
		Long:      "Sends one consolidated notification per guardian and subject for every queued item of the given type. Daily also sweeps stale hourly items.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(models.DigestHourly), string(models.DigestDaily)},
		RunE: func(cmd *cobra.Command, args []string) error {
			digestType := models.DigestType(args[0])
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				flush := a.Digests.FlushHourly
				if digestType == models.DigestDaily {
					flush = a.Digests.FlushDaily
				}
				report, err := flush(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s digest: groups=%d sent=%d failed=%d cleared=%d\n",
					digestType, report.Groups, report.Sent, report.Failed, report.Cleared)
				if report.Failed > 0 {
					return fmt.Errorf("%d digest groups failed and remain queued", report.Failed)
				}
				return nil
			})
		},
	}
}

func releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release-deferred",
		Short: "Send notifications held back by quiet hours that are now due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Releaser.ReleaseDue(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released=%d\n", n)
				return nil
			})
		},
	}
}
