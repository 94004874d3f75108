package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/assetledger/internal/config"
	"github.com/gosuda/assetledger/internal/store/postgres"
)

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				log.Info().Str("store", cfg.Store).Msg("nothing to migrate")
				return nil
			}

			version, err := postgres.Migrate(cfg.Database.MigrateURL())
			if err != nil {
				return err
			}
			log.Info().Uint("version", version).Msg("schema up to date")
			return nil
		},
	}
}
