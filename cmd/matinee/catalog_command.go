package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"matinee/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every title in the catalog with its assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.Scan(cfg.Paths.CatalogDir)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if cat.Len() == 0 {
				fmt.Fprintf(stdout, "Catalog %s is empty.\n", cfg.Paths.CatalogDir)
				return nil
			}

			features, shorts := 0, 0
			rows := make([][]string, 0, cat.Len())
			for _, entry := range cat.Entries() {
				switch entry.Kind {
				case catalog.KindShort:
					shorts++
				default:
					features++
				}
				rows = append(rows, []string{
					entry.DisplayName,
					string(entry.Kind),
					orDash(entry.Block),
					assetSummary(entry.Assets),
				})
			}

			fmt.Fprintln(stdout, renderTable(
				[]string{"Title", "Kind", "Block", "Assets"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(stdout, "%d titles (%d features, %d shorts) under %s\n", cat.Len(), features, shorts, cfg.Paths.CatalogDir)
			return nil
		},
	}
}

// assetSummary compacts an entry's asset folders into "Film 1, Trailer 2"
// form, reserved kinds first, hand-made folders after.
func assetSummary(assets map[catalog.AssetKind][]string) string {
	order := []catalog.AssetKind{
		catalog.AssetFilm,
		catalog.AssetScreener,
		catalog.AssetTrailer,
		catalog.AssetStills,
		catalog.AssetPosters,
	}

	var parts []string
	seen := make(map[catalog.AssetKind]bool, len(order))
	for _, kind := range order {
		seen[kind] = true
		if files := assets[kind]; len(files) > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", kind, len(files)))
		}
	}

	var extras []string
	for kind, files := range assets {
		if !seen[kind] && len(files) > 0 {
			extras = append(extras, fmt.Sprintf("%s %d", kind, len(files)))
		}
	}
	sort.Strings(extras)
	parts = append(parts, extras...)

	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
