package main

import (
	"fmt"

	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/observability"
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the writing content catalog",
	}

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file against the catalog schema",
		Long:  `Validate a catalog YAML file. Without an argument the configured catalog, or the embedded one, is checked.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cat *catalog.Catalog
				err error
			)
			if len(args) == 1 {
				cat, err = catalog.LoadFile(args[0])
			} else {
				cat, err = a.catalog()
			}
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintCatalog(cat)
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog is valid")
			return nil
		},
	}

	cmd.AddCommand(validate)
	return cmd
}
