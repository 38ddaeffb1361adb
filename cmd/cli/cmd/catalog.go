// Package cmd - catalog commands
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"move-quote/core/catalog"
	"move-quote/internal/app"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the item catalog",
}

var catalogResolveCmd = &cobra.Command{
	Use:   "resolve <identifier>...",
	Short: "Show how identifiers resolve against the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogResolve,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogResolveCmd)
	catalogCmd.AddCommand(catalogListCmd)
}

func runCatalogResolve(cmd *cobra.Command, args []string) error {
	cat, err := app.LoadCatalog(appConfig)
	if err != nil {
		return err
	}

	w := newWriter(cmd)
	table := w.NewTable("IDENTIFIER", "ITEM", "MATCH", "SCORE", "VOLUME")
	table.AlignRight(3, 4)
	for _, id := range args {
		m, err := cat.Resolve(id)
		if errors.Is(err, catalog.ErrNotFound) {
			table.AddRow(id, "-", "unresolved", "-", "-")
			continue
		}
		if err != nil {
			return err
		}
		table.AddRow(id, m.Item.ID, string(m.Kind), fmt.Sprintf("%.2f", m.Score), m.Item.VolumeFactor.String())
	}
	table.Render()
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := app.LoadCatalog(appConfig)
	if err != nil {
		return err
	}

	w := newWriter(cmd)
	w.Header(fmt.Sprintf("Catalog (%d items)", cat.Len()))
	table := w.NewTable("ID", "NAME", "VOLUME", "FLAGS", "SYNONYMS")
	table.AlignRight(2)
	for _, item := range cat.Items() {
		table.AddRow(item.ID, item.CanonicalName, item.VolumeFactor.String(), flags(item), strings.Join(item.Synonyms, ", "))
	}
	table.Render()
	return nil
}

func flags(item catalog.Item) string {
	var out []string
	if item.RequiresTwoPerson {
		out = append(out, "2p")
	}
	if item.IsFragile {
		out = append(out, "fragile")
	}
	if item.RequiresDisassembly {
		out = append(out, "disassembly")
	}
	return strings.Join(out, ",")
}
