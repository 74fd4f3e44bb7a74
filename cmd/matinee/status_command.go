package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"matinee/internal/config"
	"matinee/internal/ledger"
	"matinee/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show directory health, external tools, and the latest fetch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("External Tools", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, tool := range preflight.CheckTools(cfg) {
				if tool.Available {
					message := fmt.Sprintf("Ready (command: %s)", tool.Command)
					fmt.Fprintln(stdout, renderStatusLine(tool.Name, statusOK, message, colorize))
					continue
				}
				detail := tool.Detail
				if tool.Description != "" {
					detail = fmt.Sprintf("%s. %s", detail, tool.Description)
				}
				fmt.Fprintln(stdout, renderStatusLine(tool.Name, statusWarn, detail, colorize))
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Latest Fetch", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, latestFetchLine(cmd, cfg, colorize))

			return nil
		},
	}
}

func latestFetchLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	store, err := ledger.Open(cfg)
	if err != nil {
		return renderStatusLine("Last run", statusWarn, fmt.Sprintf("ledger unavailable: %v", err), colorize)
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), "")
	if err != nil {
		return renderStatusLine("Last run", statusWarn, fmt.Sprintf("ledger unavailable: %v", err), colorize)
	}
	if run == nil {
		return renderStatusLine("Last run", statusInfo, "No fetch runs recorded yet", colorize)
	}

	kind := statusOK
	if run.Failed > 0 {
		kind = statusWarn
	}
	message := fmt.Sprintf("%s at %s: %d downloaded, %d skipped, %d failed",
		shortRunID(run.ID), formatRunTime(run.StartedAt), run.OK, run.Skipped, run.Failed)
	return renderStatusLine("Last run", kind, message, colorize)
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
