package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"matinee/internal/catalog"
	"matinee/internal/organize"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var copyOnly bool
	var stubs bool

	cmd := &cobra.Command{
		Use:   "organize <dir>",
		Short: "File loose deliveries from a staging folder into the catalog",
		Long: `Walk a staging folder (an email-attachment dump, a WeTransfer download, a
synced Dropbox folder) and file every recognizable delivery into the right
title and asset folder of the catalog. Files that match no title or no asset
kind stay where they are and are listed for manual handling. Aggregate
folders like the trailer reel are rebuilt afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.Scan(cfg.Paths.CatalogDir)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("catalog %s is empty; nothing to file deliveries into", cfg.Paths.CatalogDir)
			}

			organizer := organize.New(cfg, ctx.loggerValue())
			summary, err := organizer.Run(cmd.Context(), cat, args[0], organize.Options{
				CopyOnly: copyOnly,
				// Stubs only matter when the source survives the pass.
				LeaveStubs: copyOnly && stubs,
			})
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			counts := summary.Counts()
			fmt.Fprintf(stdout, "%d moved, %d copied, %d skipped, %d unmatched, %d unclassified, %d failed\n",
				counts[organize.DispositionMoved],
				counts[organize.DispositionCopied],
				counts[organize.DispositionSkipped],
				counts[organize.DispositionUnmatched],
				counts[organize.DispositionUnclassified],
				counts[organize.DispositionFailed],
			)

			var leftovers [][]string
			for _, action := range summary.Actions {
				switch action.Disposition {
				case organize.DispositionUnmatched, organize.DispositionUnclassified, organize.DispositionFailed:
					leftovers = append(leftovers, []string{
						action.Source,
						string(action.Disposition),
						action.Detail,
					})
				}
			}
			if len(leftovers) > 0 {
				fmt.Fprintln(stdout, "Needs manual handling:")
				fmt.Fprintln(stdout, renderTable(
					[]string{"File", "Disposition", "Detail"},
					leftovers,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}

			// The new files may have changed what the reels should contain.
			rescanned, err := catalog.Scan(cfg.Paths.CatalogDir)
			if err != nil {
				return err
			}
			refreshed, err := organizer.RebuildAggregates(rescanned)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Rebuilt aggregate folders with %d links.\n", refreshed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyOnly, "copy", false, "Copy files into the catalog instead of moving them")
	cmd.Flags().BoolVar(&stubs, "stubs", true, "With --copy, leave stub sentinels so sources are not re-fetched")

	return cmd
}
