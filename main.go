package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envPath    string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taxibench",
		Short:         "Baseline vs optimized ClickHouse layout benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config path")
	cmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "Env file to load if present")
	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newLoadDuckDBCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newCompareCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}

func newSystem(cmd *cobra.Command) (*System, error) {
	config, err := LoadConfig(configPath, envPath)
	if err != nil {
		return nil, err
	}
	SetLogLevel(config.LogLevel)
	return NewSystem(config, cmd.OutOrStdout()), nil
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the database, trip tables and revenue view",
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := newSystem(cmd)
			if err != nil {
				return err
			}
			return system.Setup(cmd.Context())
		},
	}
}

func newLoadCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Truncate a trip table and load it from parquet files",
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := newSystem(cmd)
			if err != nil {
				return err
			}
			_, err = system.Load(cmd.Context(), target)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "target", TargetBaseline, "Table to load: baseline or optimized")
	return cmd
}

func newLoadDuckDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-duckdb",
		Short: "Recreate the baseline table in DuckDB from parquet files",
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := newSystem(cmd)
			if err != nil {
				return err
			}
			_, err = system.LoadDuckDB(cmd.Context())
			return err
		},
	}
}

func newBenchCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the analytical queries of a layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := newSystem(cmd)
			if err != nil {
				return err
			}
			_, err = system.Bench(cmd.Context(), target)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "target", TargetBaseline, "Query set to run: baseline or optimized")
	return cmd
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Join baseline and optimized results and compute improvement",
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := newSystem(cmd)
			if err != nil {
				return err
			}
			_, err = system.Compare()
			return err
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Reconcile the revenue view with the raw trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := newSystem(cmd)
			if err != nil {
				return err
			}
			return system.Validate(cmd.Context())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	Logger.Sync()
	if err != nil {
		if !errors.Is(err, ErrValidationFailed) {
			Logger.Errorf("failed: %v", err)
		}
		stop()
		os.Exit(1)
	}
}
