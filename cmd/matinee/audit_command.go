package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"matinee/internal/audit"
	"matinee/internal/catalog"
	"matinee/internal/logging"
	"matinee/internal/notify"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Probe every delivered film against the projection requirements",
		Long: `Run ffprobe over every film file in the catalog and check the results
against the configured projection requirements: resolution, aspect ratio,
codecs, bitrate, frame rate, and duration. Titles with no delivery at all
are flagged too. The full findings land in a Markdown report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Paths.ReportDir
			}

			cat, err := catalog.Scan(cfg.Paths.CatalogDir)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("catalog %s is empty; nothing to audit", cfg.Paths.CatalogDir)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctx.loggerValue()
			auditor := audit.New(cfg, logger)

			report, err := auditor.Run(runCtx, cat)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			passed, flagged := 0, 0
			var rows [][]string
			for _, finding := range report.Findings {
				if len(finding.Concerns) == 0 {
					passed++
					continue
				}
				flagged++
				for _, concern := range finding.Concerns {
					file := "-"
					if finding.Path != "" {
						file = filepath.Base(finding.Path)
					}
					rows = append(rows, []string{
						finding.Title,
						file,
						string(concern.Severity),
						concern.Message,
					})
				}
			}

			if len(rows) > 0 {
				fmt.Fprintln(stdout, renderTable(
					[]string{"Title", "File", "Severity", "Concern"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}

			critical, warning, info := report.Counts()
			fmt.Fprintf(stdout, "%d titles audited: %d passed, %d flagged (%d critical, %d warning, %d info)\n",
				len(report.Findings), passed, flagged, critical, warning, info)

			if path, err := report.WriteMarkdown(outputDir); err != nil {
				logger.Warn("write audit report", logging.Error(err))
				fmt.Fprintf(stdout, "warning: could not write report: %v\n", err)
			} else {
				fmt.Fprintf(stdout, "Report written to %s\n", path)
			}

			if runCtx.Err() == nil {
				notifier := notify.NewService(cfg)
				payload := notify.Payload{
					"passed":  strconv.Itoa(passed),
					"flagged": strconv.Itoa(flagged),
				}
				if err := notifier.Publish(cmd.Context(), notify.EventAuditCompleted, payload); err != nil {
					logger.Warn("publish audit notification", logging.Error(err))
				}
			}
			return runCtx.Err()
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the Markdown report (defaults to the report directory)")

	return cmd
}
