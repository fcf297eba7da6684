package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/alexjoedt/imagestore"
)

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Prints the catalog of the storage root as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore(a.cfg.Storage, a.logger)
			if err != nil {
				return err
			}

			entries, err := store.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Body []imagestore.CatalogEntry `json:"body"`
			}{Body: entries})
		},
	}
}
