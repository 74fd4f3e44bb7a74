package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"matinee/internal/catalog"
	"matinee/internal/reconcile"
	"matinee/internal/sheet"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var listSource string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "match [title]...",
		Short: "Match titles from a list or the command line against the catalog",
		Long: `Resolve titles against the film catalog using fuzzy matching, the same way
the drive builder resolves a schedule. Pass titles as arguments, or --list
with a CSV or Sheets link to check a whole list at once. When a title is
ambiguous and the session is interactive, the closest candidates are offered
for a manual pick.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			queries := make([]string, 0, len(args))
			for _, arg := range args {
				if trimmed := strings.TrimSpace(arg); trimmed != "" {
					queries = append(queries, trimmed)
				}
			}
			if listSource != "" {
				table, err := sheet.Load(cmd.Context(), listSource, sheet.Options{
					TitleColumn:    cfg.Sheet.TitleColumn,
					RequestTimeout: time.Duration(cfg.Sheet.RequestTimeout) * time.Second,
				})
				if err != nil {
					return err
				}
				for _, row := range table.Rows {
					if title := strings.TrimSpace(row.Title); title != "" {
						queries = append(queries, title)
					}
				}
			}
			if len(queries) == 0 {
				return fmt.Errorf("nothing to match: pass titles or --list")
			}

			cat, err := catalog.Scan(cfg.Paths.CatalogDir)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("catalog %s is empty; run fetch and organize first", cfg.Paths.CatalogDir)
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Matching.ListThreshold
			}

			opts := []reconcile.Option{reconcile.WithThreshold(threshold)}
			if isatty.IsTerminal(os.Stdin.Fd()) {
				resolver := &promptResolver{
					in:  bufio.NewReader(cmd.InOrStdin()),
					out: cmd.OutOrStdout(),
				}
				opts = append(opts, reconcile.WithResolver(cfg.Matching.ReviewFloor, resolver))
			}
			matcher := reconcile.NewMatcher(cat, opts...)

			results := matcher.MatchAll(queries)

			rows := make([][]string, 0, len(results))
			matched := 0
			for _, result := range results {
				display, location := "-", "-"
				if result.Matched() {
					matched++
					if entry, ok := cat.Get(result.MatchedKey); ok {
						display = entry.DisplayName
						location = "Features"
						if entry.Kind == catalog.KindShort {
							location = "Shorts/" + entry.Block
						}
					}
				}
				rows = append(rows, []string{
					result.Query,
					display,
					location,
					fmt.Sprintf("%.2f", result.Confidence),
				})
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderTable(
				[]string{"Query", "Matched Title", "Location", "Confidence"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(stdout, "%d of %d titles matched (threshold %.2f).\n", matched, len(results), threshold)
			return nil
		},
	}

	cmd.Flags().StringVar(&listSource, "list", "", "CSV file or Sheets link whose titles should be matched")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum confidence to accept a match")

	return cmd
}

// promptResolver asks the operator to pick among near-miss candidates.
// Only wired up when stdin is a terminal.
type promptResolver struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *promptResolver) Resolve(a reconcile.Ambiguity) (string, bool) {
	fmt.Fprintf(p.out, "\nNo confident match for %q. Closest entries:\n", a.Query)
	for i, cand := range a.Candidates {
		fmt.Fprintf(p.out, "  %d) %s (%.2f)\n", i+1, cand.Display, cand.Score)
	}
	fmt.Fprintf(p.out, "Pick 1-%d, or press Enter to leave unmatched: ", len(a.Candidates))

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 1 || choice > len(a.Candidates) {
		fmt.Fprintln(p.out, "Leaving unmatched.")
		return "", false
	}
	return a.Candidates[choice-1].Key, true
}
