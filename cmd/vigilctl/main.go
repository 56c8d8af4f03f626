// vigilctl runs the engine's one-shot operator jobs against the configured
// stores. It reads the same environment as the server.
//
// Usage:
//
//	vigilctl flush hourly
//	vigilctl flush daily
//	vigilctl release-deferred
//	vigilctl allowlist sync --emergency
//	vigilctl allowlist check 988lifeline.org
//	vigilctl token issue --service classifier --scope candidates:write
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vigil/internal/app"
	"vigil/internal/platform/config"
	"vigil/internal/platform/logger"
	"vigil/pkg/requestcontext"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vigilctl",
		Short: "Operate the vigil concern engine",
		Long: `vigilctl runs digest flushes, deferred releases and allowlist
maintenance against the stores configured in the environment. It is meant
for cron and for operators; the server runs the same jobs on its own timers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(flushCmd())
	root.AddCommand(releaseCmd())
	root.AddCommand(allowlistCmd())
	root.AddCommand(tokenCmd())
	return root
}

// withApp builds the engine, runs fn with a pinned job time, and tears the
// engine down again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(requestcontext.WithTime(ctx, time.Now().UTC()), a)
}
