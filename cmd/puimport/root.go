package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agbanzy/pollingunits/internal/config"
	"github.com/agbanzy/pollingunits/internal/logging"
)

// storeFlags are shared by commands that open a store.
type storeFlags struct {
	backend    string
	sqlitePath string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "Store backend: postgres, sqlite, memory (default: STORE_BACKEND)")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "SQLite database file (default: SQLITE_PATH)")
}

func newRootCmd() *cobra.Command {
	var envFile string
	var logLevel string

	cmd := &cobra.Command{
		Use:           "puimport",
		Short:         "Polling-unit registry import tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Overload(envFile); err != nil {
					return withCode(exitUsage, fmt.Errorf("load %s: %w", envFile, err))
				}
			} else {
				_ = godotenv.Load()
			}
			if logLevel == "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			// stdout carries the JSON summary; logs go to stderr.
			logging.Setup(cmd.ErrOrStderr(), logLevel, os.Getenv("LOG_FORMAT"))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file (default: .env if present)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

// loadConfig reads the environment, applies flag overrides and validates.
func loadConfig(flags storeFlags) (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	if flags.backend != "" {
		cfg.Store.Backend = strings.ToLower(flags.backend)
	}
	if flags.sqlitePath != "" {
		cfg.Store.SQLitePath = flags.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, withCode(exitUsage, err)
	}
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
