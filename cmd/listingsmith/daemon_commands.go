package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"listingsmith/internal/daemonctl"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the listingsmithd API daemon",
	}

	var waitTimeout time.Duration
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Launch the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := daemonctl.ResolveExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				daemonctl.NewClient(cfg),
				exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configPath()},
				waitTimeout,
			)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started on %s\n", cfg.Paths.APIBind)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().DurationVar(&waitTimeout, "wait", 10*time.Second, "How long to wait for the daemon to answer")

	var grace time.Duration
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), cfg, daemonctl.NewClient(cfg), grace)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}
	stopCmd.Flags().DurationVar(&grace, "grace", 5*time.Second, "Time allowed for a clean shutdown before SIGKILL")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon is answering",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			queryCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			err = daemonctl.NewClient(cfg).Health(queryCtx)
			running := err == nil
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"running": running, "address": cfg.Paths.APIBind})
			}
			stdout := cmd.OutOrStdout()
			switch {
			case running:
				fmt.Fprintf(stdout, "Daemon running on %s\n", cfg.Paths.APIBind)
			case errors.Is(err, daemonctl.ErrDaemonNotRunning):
				fmt.Fprintln(stdout, "Daemon is not running")
			default:
				return err
			}
			return nil
		},
	}

	daemonCmd.AddCommand(startCmd, stopCmd, statusCmd)
	return daemonCmd
}
