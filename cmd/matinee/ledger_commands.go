package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"matinee/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded fetch runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(stdout, "No fetch runs recorded yet.")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortRunID(run.ID),
						formatRunTime(run.StartedAt),
						formatRunDuration(run.Duration()),
						strconv.Itoa(run.OK),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
						run.SheetSource,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Run", "Started", "Duration", "OK", "Skipped", "Failed", "Sheet"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show the full outcome of a fetch run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				id := ""
				if len(args) > 0 {
					id = args[0]
				}

				run, err := store.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if run == nil {
					if id == "" {
						fmt.Fprintln(stdout, "No fetch runs recorded yet.")
						return nil
					}
					return fmt.Errorf("no run matches %q", id)
				}

				report, err := store.ReportFor(cmd.Context(), run)
				if err != nil {
					return err
				}

				fmt.Fprintf(stdout, "Run:      %s\n", run.ID)
				fmt.Fprintf(stdout, "Started:  %s\n", formatRunTime(run.StartedAt))
				fmt.Fprintf(stdout, "Duration: %s\n", formatRunDuration(run.Duration()))
				fmt.Fprintf(stdout, "Sheet:    %s\n", orDash(run.SheetSource))
				fmt.Fprintf(stdout, "Output:   %s\n", orDash(run.OutputRoot))
				fmt.Fprintln(stdout, report.Summary())

				if len(report.Outcomes) > 0 {
					rows := make([][]string, 0, len(report.Outcomes))
					for _, out := range report.Outcomes {
						rows = append(rows, []string{
							strconv.Itoa(out.Job.RowIndex),
							out.Job.Title,
							string(out.Job.Kind),
							string(out.Strategy),
							string(out.Status),
							out.Detail,
						})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Row", "Title", "Asset", "Strategy", "Status", "Detail"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
					))
				}
				printWarnings(stdout, report.Warnings)
				return nil
			})
		},
	}
}

func withLedger(ctx *commandContext, fn func(*ledger.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
