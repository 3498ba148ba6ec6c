package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agbanzy/pollingunits/internal/config"
	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/store"
	"github.com/agbanzy/pollingunits/internal/store/memstore"
)

type checkOptions struct {
	file       string
	failOnSkip bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run a registry file against an empty in-memory store",
		Long: "Parses the file and runs the full import pipeline against an in-memory\n" +
			"store holding only the states. No database is needed. The summary shows\n" +
			"how many rows would match and which state names do not resolve.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", `Registry file, "-" for stdin (required)`)
	cmd.Flags().BoolVar(&opts.failOnSkip, "fail-on-skip", false, "Exit non-zero if any row would be skipped")

	return cmd
}

func runCheck(ctx context.Context, out io.Writer, stdin io.Reader, opts checkOptions) error {
	cfg, err := config.Read()
	if err != nil {
		return withCode(exitUsage, err)
	}
	bounds := cfg.Import.Bounds()
	if err := bounds.Validate(); err != nil {
		return withCode(exitUsage, err)
	}

	records, err := readSource(opts.file, stdin)
	if err != nil {
		return err
	}

	mem := memstore.New()
	if _, err := mem.InsertStates(ctx, store.NigerianStates); err != nil {
		return withCode(exitStore, err)
	}

	summary, err := core.NewImporter(mem, core.WithBounds(bounds)).
		RunRecords(ctx, records, core.RunOptions{DryRun: true})
	if err != nil {
		return withCode(exitStore, err)
	}

	if err := writeJSONLine(out, summary); err != nil {
		return err
	}
	if opts.failOnSkip && summary.Skipped > 0 {
		return withCode(exitSource, fmt.Errorf("%d of %d rows would be skipped (%d malformed, %d unresolved)",
			summary.Skipped, summary.TotalRecords, summary.SkippedMalformed, summary.SkippedUnresolved))
	}
	return nil
}
