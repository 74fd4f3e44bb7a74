package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"matinee/internal/fetch"
	"matinee/internal/ledger"
	"matinee/internal/logging"
	"matinee/internal/notify"
	"matinee/internal/services"
	"matinee/internal/sheet"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var threshold int64
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fetch [sheet]",
		Short: "Download every submission listed in the festival sheet",
		Long: `Read the submissions sheet (a Google Sheets link or a local CSV), turn every
screener, trailer, and still link into a download job, and run the jobs through
a bounded worker pool. Files that already exist at full size are skipped, so
re-running after a partial night is cheap. Each run is recorded in the ledger
and summarized in a CSV report.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := cfg.Sheet.URL
			if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
				source = strings.TrimSpace(args[0])
			}
			if strings.TrimSpace(source) == "" {
				return fmt.Errorf("no sheet given: pass a URL or CSV path, or set sheet.url in the config")
			}

			if cmd.Flags().Changed("workers") {
				cfg.Fetch.Workers = workers
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Fetch.MinCompleteMiB = threshold
			}

			stdout := cmd.OutOrStdout()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			table, err := sheet.Load(runCtx, source, sheet.Options{
				TitleColumn:    cfg.Sheet.TitleColumn,
				RequestTimeout: time.Duration(cfg.Sheet.RequestTimeout) * time.Second,
			})
			if err != nil {
				return err
			}

			jobs, warnings := fetch.BuildJobs(table, fetch.JobOptions{
				TitleColumn:    cfg.Sheet.TitleColumn,
				PasswordColumn: cfg.Fetch.VideoPasswordColumn,
			})
			if len(jobs) == 0 {
				fmt.Fprintln(stdout, "Nothing to fetch: the sheet contains no downloadable links.")
				printWarnings(stdout, warnings)
				return nil
			}

			if dryRun {
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.Itoa(job.RowIndex),
						job.Title,
						string(job.Kind),
						string(fetch.Classify(job.SourceURL).Strategy),
						job.SourceURL,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Row", "Title", "Asset", "Strategy", "URL"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(stdout, "%d jobs planned from %d sheet rows. No files were downloaded.\n", len(jobs), len(table.Rows))
				printWarnings(stdout, warnings)
				return nil
			}

			// One fetch at a time: concurrent runs would race on partial
			// files and double-download everything.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire fetch lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another fetch run is already in progress (lock %s)", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					ctx.loggerValue().Warn("release fetch lock", logging.Error(err))
				}
			}()

			// The run id is minted before the first download so every log
			// line of the run carries it and the ledger stores the same id.
			runID := uuid.NewString()
			runCtx = services.WithRunID(runCtx, runID)
			logger := logging.WithContext(runCtx, ctx.loggerValue())
			notifier := notify.NewService(cfg)
			progress := isatty.IsTerminal(os.Stdout.Fd())

			fetcher := fetch.New(cfg, logger, fetch.WithProgress(progress))

			started := time.Now().UTC()
			fmt.Fprintf(stdout, "Fetching %d assets from %s\n", len(jobs), source)
			outcomes, err := fetcher.Run(runCtx, jobs)
			if err != nil {
				publishErr := notifier.Publish(cmd.Context(), notify.EventError, notify.Payload{
					"context": "fetch",
					"error":   err.Error(),
				})
				if publishErr != nil {
					logger.Warn("publish error notification", logging.Error(publishErr))
				}
				return err
			}

			report := &fetch.Report{
				RunID:     runID,
				StartedAt: started,
				EndedAt:   time.Now().UTC(),
				Warnings:  warnings,
				Outcomes:  outcomes,
			}

			if path, err := report.WriteCSV(cfg.Paths.ReportDir); err != nil {
				logger.Warn("write fetch report", logging.Error(err))
				fmt.Fprintf(stdout, "warning: could not write report: %v\n", err)
			} else {
				fmt.Fprintf(stdout, "Report written to %s\n", path)
			}

			// Ledger trouble should never fail a run that moved bytes.
			if store, err := ledger.Open(cfg); err != nil {
				logger.Warn("open ledger", logging.Error(err))
				fmt.Fprintf(stdout, "warning: run not recorded: %v\n", err)
			} else {
				if run, err := store.RecordRun(cmd.Context(), source, cfg.Paths.AssetsDir, report); err != nil {
					logger.Warn("record run", logging.Error(err))
					fmt.Fprintf(stdout, "warning: run not recorded: %v\n", err)
				} else {
					fmt.Fprintf(stdout, "Run recorded as %s\n", shortRunID(run.ID))
				}
				if err := store.Close(); err != nil {
					logger.Warn("close ledger", logging.Error(err))
				}
			}

			fmt.Fprintln(stdout, report.Summary())
			if failed := report.Failed(); len(failed) > 0 {
				rows := make([][]string, 0, len(failed))
				for _, out := range failed {
					rows = append(rows, []string{
						strconv.Itoa(out.Job.RowIndex),
						out.Job.Title,
						string(out.Strategy),
						out.Detail,
					})
				}
				fmt.Fprintln(stdout, "Failed downloads:")
				fmt.Fprintln(stdout, renderTable(
					[]string{"Row", "Title", "Strategy", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
			}
			printWarnings(stdout, warnings)

			if runCtx.Err() == nil {
				_, _, failed := report.Counts()
				payload := notify.Payload{
					"summary":  report.Summary(),
					"duration": report.EndedAt.Sub(report.StartedAt).Round(time.Second).String(),
					"failed":   strconv.Itoa(failed),
				}
				if err := notifier.Publish(cmd.Context(), notify.EventFetchCompleted, payload); err != nil {
					logger.Warn("publish fetch notification", logging.Error(err))
				}
			}

			// A failed download is data for the report, not a command error;
			// an interrupted run still exits non-zero.
			return runCtx.Err()
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured download worker count")
	cmd.Flags().Int64Var(&threshold, "threshold", 0, "Minimum size in MiB before an existing file counts as complete")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the download jobs without fetching anything")

	return cmd
}
