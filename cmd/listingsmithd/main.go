// Command listingsmithd serves the listingsmith HTTP API.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"listingsmith/internal/config"
	"listingsmith/internal/daemonrun"
)

var version = "dev"

type runFunc func(ctx context.Context, cfg *config.Config, opts daemonrun.Options) error

func newRootCommand(run runFunc) *cobra.Command {
	var configPath string
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:           "listingsmithd",
		Short:         "Serve the listingsmith API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&opts.Bind, "bind", "", "Override paths.api_bind")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level")
	return cmd
}

func main() {
	if err := fang.Execute(context.Background(), newRootCommand(daemonrun.Run), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}
