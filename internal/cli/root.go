package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/config"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
	"github.com/iamthetwodigiter/rusty-rebase/internal/paths"
	"github.com/iamthetwodigiter/rusty-rebase/internal/telemetry"
	"github.com/iamthetwodigiter/rusty-rebase/internal/tui"
)

// Version is stamped at build time.
var Version = "dev"

var (
	configPath  string
	dryRunFlag  bool
	verbose     bool
	plainOutput bool
	outputJSON  bool
)

var (
	logCloser         io.Closer
	telemetryShutdown func(context.Context) error
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "rebase",
		Short:             "Resolve, install and restore a developer workstation",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupAmbient,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return teardownAmbient(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default $XDG_CONFIG_HOME/rusty-rebase/config.yaml)")
	cmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Log commands instead of running them")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "Print progress lines instead of the interactive view")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newHostCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return paths.ConfigFile()
}

// setupAmbient installs logging and tracing before any command runs.
func setupAmbient(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	interactive := tui.DetectMode(cmd.OutOrStdout(), plainOutput) == tui.ModeTUI

	closer, err := logx.Setup(logx.Options{
		Level:   level,
		File:    paths.LogFile(),
		Console: verbose && !interactive,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	logCloser = closer

	shutdown, err := telemetry.InitializeFromEnv(commandContext(cmd), Version)
	if err != nil {
		logx.Get("cli").Warn().Err(err).Msg("tracing disabled")
		shutdown = nil
	}
	telemetryShutdown = shutdown
	return nil
}

func teardownAmbient(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	if telemetryShutdown != nil {
		err = telemetryShutdown(ctx)
		telemetryShutdown = nil
	}
	if logCloser != nil {
		if cerr := logCloser.Close(); err == nil {
			err = cerr
		}
		logCloser = nil
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
