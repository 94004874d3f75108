// Command assetledger serves the asset audit ledger API and offers
// maintenance commands for its record store.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/assetledger/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("assetledger failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storeFlag string

	root := &cobra.Command{
		Use:           "assetledger",
		Short:         "Tamper-evident audit ledger for asset assignments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storeFlag, "store", "", `record store: "memory" or "postgres" (overrides ASSETLEDGER_STORE)`)

	load := func() (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if storeFlag != "" {
			cfg.Store = storeFlag
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
		}
		setupLogging(cfg.Log)
		return cfg, nil
	}

	serve := newServeCmd(load)
	root.AddCommand(serve, newMigrateCmd(load), newVerifyCmd(load))

	// Bare "assetledger" serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
