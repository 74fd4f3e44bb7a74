package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"matinee/internal/catalog"
	"matinee/internal/drives"
)

func newDrivesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drives <schedule> <dest>",
		Short: "Build a projection drive from a schedule CSV",
		Long: `Copy everything each screening needs onto a drive: one folder per showing
named "<Day>/<Time> - <Title>", holding the feature film or, for a shorts
block, every film of the block in running order. Copies are size-verified
and re-runnable; a larger source replaces a stale copy, everything else is
skipped. A roll call of scheduled titles with no delivered film closes the
run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			showings, warnings, err := drives.ParseSchedule(args[0])
			if err != nil {
				return err
			}
			if len(showings) == 0 {
				return fmt.Errorf("schedule %s contains no showings", args[0])
			}

			cat, err := catalog.Scan(cfg.Paths.CatalogDir)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("catalog %s is empty; nothing to copy from", cfg.Paths.CatalogDir)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			progress := isatty.IsTerminal(os.Stdout.Fd())
			builder := drives.New(cfg, ctx.loggerValue(), drives.WithProgress(progress))

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Building drive at %s from %d showings\n", args[1], len(showings))
			report, err := builder.Build(runCtx, cat, showings, args[1])
			if err != nil {
				return err
			}

			counts := report.Counts()
			fmt.Fprintf(stdout, "%d copied, %d overwritten, %d skipped, %d missing, %d failed\n",
				counts[drives.DispositionCopied],
				counts[drives.DispositionOverwritten],
				counts[drives.DispositionSkipped],
				counts[drives.DispositionMissing],
				counts[drives.DispositionFailed],
			)
			if report.AuxSkipped > 0 {
				fmt.Fprintf(stdout, "%d sponsor and trailer files already in place.\n", report.AuxSkipped)
			}

			var problems [][]string
			for _, action := range report.Actions {
				switch action.Disposition {
				case drives.DispositionMissing, drives.DispositionFailed:
					problems = append(problems, []string{
						action.Title,
						string(action.Disposition),
						action.Detail,
					})
				}
			}
			if len(problems) > 0 {
				fmt.Fprintln(stdout, "Not on the drive:")
				fmt.Fprintln(stdout, renderTable(
					[]string{"Title", "Disposition", "Detail"},
					problems,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}

			var unresolved [][]string
			for _, result := range report.RollCall {
				if !result.Matched() {
					unresolved = append(unresolved, []string{
						result.Query,
						fmt.Sprintf("%.2f", result.Confidence),
					})
				}
			}
			if len(unresolved) > 0 {
				fmt.Fprintln(stdout, "Roll call: scheduled titles with no catalog match:")
				fmt.Fprintln(stdout, renderTable(
					[]string{"Scheduled Title", "Best Score"},
					unresolved,
					[]columnAlignment{alignLeft, alignRight},
				))
			} else {
				fmt.Fprintln(stdout, "Roll call: every scheduled title resolved to a catalog entry.")
			}

			printWarnings(stdout, warnings)
			return runCtx.Err()
		},
	}
}
