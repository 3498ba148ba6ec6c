package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agbanzy/pollingunits/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and seed the states",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
	flags.register(cmd)

	return cmd
}

type migrateResult struct {
	Backend string `json:"backend"`
	States  int    `json:"states"`
}

func runMigrate(ctx context.Context, out io.Writer, flags storeFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return withCode(exitStore, err)
	}
	defer backend.Close()

	if err := store.Prepare(ctx, backend); err != nil {
		return withCode(exitStore, err)
	}

	states, err := backend.ListStates(ctx)
	if err != nil {
		return withCode(exitStore, err)
	}
	return writeJSONLine(out, migrateResult{Backend: cfg.Store.Backend, States: len(states)})
}
