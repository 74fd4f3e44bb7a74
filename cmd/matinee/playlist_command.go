package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"matinee/internal/catalog"
	"matinee/internal/drives"
	"matinee/internal/playlist"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "playlist <schedule>",
		Short: "Write M3U playlists for every showing in a schedule",
		Long: `Assemble one extended-M3U playlist per showing: house trailers, promos, the
pre-roll bumper and sponsor loop, then the feature or the shorts block in
running order with the configured gap slide between films. Entry paths are
written relative to the playlist file so the folder can be copied onto a
projection machine wholesale.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = filepath.Join(cfg.Paths.ReportDir, "playlists")
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
				return fmt.Errorf("catalog %s is empty; nothing to assemble", cfg.Paths.CatalogDir)
			}

			assembler := playlist.New(cfg, ctx.loggerValue())

			stdout := cmd.OutOrStdout()
			written := 0
			for _, showing := range showings {
				pl := assembler.Assemble(cat, showing)
				path, err := pl.Write(outputDir)
				if err != nil {
					return fmt.Errorf("write playlist %s: %w", pl.Name, err)
				}
				written++
				fmt.Fprintf(stdout, "%s: %d entries -> %s\n", pl.Name, len(pl.Entries), path)
				printWarnings(stdout, pl.Warnings)
			}
			fmt.Fprintf(stdout, "%d playlists written to %s\n", written, outputDir)
			printWarnings(stdout, warnings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the playlists (defaults to <report_dir>/playlists)")

	return cmd
}
