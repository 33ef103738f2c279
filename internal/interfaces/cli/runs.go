package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/spf13/cobra"
)

func (c *command) runsCommand() *cobra.Command {
	var (
		source string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.listRuns(cmd.Context(), source, limit)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "only runs of this source (football, rugby, gaa)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

func (c *command) listRuns(ctx context.Context, source string, limit int) error {
	cfg, logger, err := c.loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := c.newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = a.Close(shutdownCtx)
	}()

	runs, err := a.History.Recent(ctx, source, limit)
	if err != nil {
		return err
	}
	return printRuns(c.out, runs)
}

func printRuns(w io.Writer, runs []syncrun.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSOURCE\tSTATUS\tDRY\tFETCHED\tCREATED\tUPDATED\tFAILED_BATCHES\tDURATION\tRUN_ID")
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\t%d\t%d\t%s\t%s\n",
			run.StartedAt.Format(time.RFC3339), run.Source, run.Status, run.DryRun,
			run.Fetched, run.Created, run.Updated, run.FailedBatches, duration, run.RunID,
		)
	}
	return tw.Flush()
}
