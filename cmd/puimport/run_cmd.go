package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/logging"
	"github.com/agbanzy/pollingunits/internal/store"
	"github.com/agbanzy/pollingunits/internal/store/postgres"
)

type runOptions struct {
	file          string
	clearExisting bool
	clearSet      bool
	dryRun        bool
	chunkSize     int
	atomic        bool
	store         storeFlags
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import a registry file into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.clearSet = cmd.Flags().Changed("clear-existing")
			return runImport(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", `Registry file, "-" for stdin (default: IMPORT_SOURCE_FILE)`)
	cmd.Flags().BoolVar(&opts.clearExisting, "clear-existing", false, "Delete every polling unit before loading (irreversible)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Resolve and plan without writing")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "Rows per store write (default: IMPORT_CHUNK_SIZE)")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false, "Run the whole import in one transaction (postgres only)")
	opts.store.register(cmd)

	return cmd
}

func runImport(ctx context.Context, out io.Writer, stdin io.Reader, opts runOptions) error {
	cfg, err := loadConfig(opts.store)
	if err != nil {
		return err
	}
	if opts.file == "" {
		opts.file = cfg.Import.SourceFile
	}
	if !opts.clearSet {
		opts.clearExisting = cfg.Import.ClearExisting
	}
	chunkSize := cfg.Import.ChunkSize
	if opts.chunkSize < 0 {
		return withCode(exitUsage, fmt.Errorf("--chunk-size must be positive"))
	}
	if opts.chunkSize > 0 {
		chunkSize = opts.chunkSize
	}
	if opts.atomic && cfg.Store.Backend != store.BackendPostgres {
		return withCode(exitUsage, fmt.Errorf("--atomic requires the postgres backend, got %s", cfg.Store.Backend))
	}
	if opts.atomic && opts.dryRun {
		return withCode(exitUsage, fmt.Errorf("--atomic and --dry-run are mutually exclusive"))
	}

	records, err := readSource(opts.file, stdin)
	if err != nil {
		return err
	}
	slog.Info("source parsed",
		"file", opts.file,
		"rows", len(records.Rows),
		"malformed", len(records.Malformed),
		"bytes", records.BytesRead,
	)

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return withCode(exitStore, err)
	}
	defer backend.Close()

	if cfg.Store.AutoMigrate {
		if err := store.Prepare(ctx, backend); err != nil {
			return withCode(exitStore, err)
		}
	}

	var target core.Store = backend
	var tx pgx.Tx
	if opts.atomic {
		pg := backend.(*postgres.Store)
		tx, err = pg.Begin(ctx)
		if err != nil {
			return withCode(exitStore, err)
		}
		// No-op once committed.
		defer tx.Rollback(context.WithoutCancel(ctx))
		target = pg.WithTx(tx)
	}

	var failedPhase core.RunPhase
	importer := core.NewImporter(target,
		core.WithChunkSize(chunkSize),
		core.WithBounds(cfg.Import.Bounds()),
		core.WithObserver(core.MultiObserver(
			logging.ImportObserver(slog.Default()),
			core.ObserverFunc(func(e core.ProgressEvent) {
				if e.Phase == core.PhaseFailed {
					failedPhase = e.FailedPhase
				}
			}),
		)),
	)

	summary, err := importer.RunRecords(ctx, records, core.RunOptions{
		ClearExisting: opts.clearExisting,
		DryRun:        opts.dryRun,
	})
	if err != nil {
		return withCode(failureCode(failedPhase), fmt.Errorf("import failed during %s: %w", failedPhase, err))
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return withCode(exitStoreWrite, fmt.Errorf("commit: %w", err))
		}
	}

	return writeJSONLine(out, summary)
}

// failureCode separates failed writes from failed reads.
func failureCode(phase core.RunPhase) int {
	switch phase {
	case core.PhasePersistingHierarchy, core.PhaseClearing, core.PhaseLoadingUnits:
		return exitStoreWrite
	default:
		return exitStore
	}
}
