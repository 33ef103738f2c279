package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	targetAll       = "all"
	shutdownTimeout = 10 * time.Second
)

var allSources = []string{fixture.SourceFootball, fixture.SourceRugby, fixture.SourceGAA}

func (c *command) syncCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:       "sync <football|rugby|gaa|all>",
		Short:     "Fetch fixtures from a source and reconcile them into the Airtable table",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: append(append([]string(nil), allSources...), targetAll),
		Example: `  matchday sync football
  matchday sync gaa --dry-run
  matchday sync all --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd.Context(), args[0], usecase.SyncOptions{DryRun: dryRun})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve and plan without writing to Airtable")
	return cmd
}

func (c *command) runSync(ctx context.Context, target string, opts usecase.SyncOptions) (err error) {
	names := []string{target}
	if target == targetAll {
		names = allSources
	}

	cfg, logger, err := c.loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Credentials are checked before anything talks to a remote.
	if err := cfg.Require(names...); err != nil {
		logger.Error("sync precondition failed", "target", target, "error", err)
		return fmt.Errorf("%w: %v", usecase.ErrPrecondition, err)
	}

	a, err := c.newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if closeErr := a.Close(shutdownCtx); closeErr != nil {
			logger.Warn("shutdown incomplete", "error", closeErr)
		}
	}()

	sources, err := a.Sources(names...)
	if err != nil {
		return err
	}

	ctx, span := cliTracer.Start(ctx, "cli.sync", trace.WithAttributes(
		attribute.String("target", target),
		attribute.Bool("dry_run", opts.DryRun),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	reports, runErr := a.Sync.RunAll(ctx, sources, opts)
	for _, report := range reports {
		printReport(c.out, report)
	}
	if runErr != nil {
		logger.Warn("sync interrupted", "target", target, "error", runErr)
		return fmt.Errorf("sync %s interrupted: %w", target, runErr)
	}

	// A failed source is logged and the run still exits cleanly.
	for _, report := range reports {
		if report.Status == syncrun.StatusFailed {
			logger.Error("source sync failed",
				"source", report.Source,
				"run_id", report.RunID,
				"fetch_error", report.FetchError,
				"failed_batches", report.FailedBatches,
			)
		}
	}
	return nil
}

func printReport(w io.Writer, r usecase.SyncReport) {
	mode := ""
	if r.DryRun {
		mode = " dry_run=true"
	}
	duration := time.Duration(0)
	if !r.FinishedAt.IsZero() {
		duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)
	}
	fmt.Fprintf(w,
		"%s status=%s%s fetched=%d normalized=%d rejected=%d duplicates=%d existing=%d lookup_failures=%d created=%d/%d updated=%d/%d failed_batches=%d duration=%s run_id=%s\n",
		r.Source, r.Status, mode,
		r.Fetched, r.Normalized, r.RejectedTotal(), r.Duplicates, r.Existing, r.LookupFailures,
		r.Created, r.ToCreate, r.Updated, r.ToUpdate, r.FailedBatches,
		duration, r.RunID,
	)
	if r.FetchError != "" {
		fmt.Fprintf(w, "%s fetch_error=%q\n", r.Source, r.FetchError)
	}
}
