package main

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply catalog schema and seed migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.Catalog.Source != "sqlite" {
				return fmt.Errorf("migrate needs catalog.source sqlite, got %q", cfg.Catalog.Source)
			}

			repo, err := catalog.NewRepository(cfg.Catalog.DSN)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.RunMigrations(); err != nil {
				return err
			}

			products, err := repo.GetAllProducts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ready: %d products\n", len(products))
			return nil
		},
	}
}
