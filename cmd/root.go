// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the querydesk CLI.
// It implements subcommands for managing the saved connection, running SQL
// against MySQL or PostgreSQL, and serving the query engine over gRPC, using
// the Cobra CLI framework with pterm output.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"querydesk/cli/internal/config"
	"querydesk/cli/internal/logging"
)

var (
	showVersion bool
	logLevel    string

	// cfg is loaded once before any subcommand runs.
	cfg = config.Default()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "querydesk",
	Short:         "Run SQL against MySQL and PostgreSQL from the terminal",
	Long:          `querydesk executes SQL against a saved MySQL or PostgreSQL connection, prints typed results, and can serve the same engine to other processes over gRPC.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion()
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// Errors already shown to the user are not printed twice.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, logging.Mask(err.Error()))
		}
		os.Exit(1)
	}
}

// setup loads .env, the config file and installs the logger.
func setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	loaded, err := config.Load()
	if err != nil {
		// Defaults still apply; a broken config should not block queries.
		defer slog.Warn("config not loaded, using defaults", "error", err)
	}
	cfg = loaded

	level := cfg.LogLevel
	if v := strings.TrimSpace(os.Getenv("QUERYDESK_VERBOSE")); v != "" && v != "0" {
		level = "debug"
	}
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	logging.Setup(os.Stderr, level)
	return nil
}

// reportedError wraps an error whose details were already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
}
