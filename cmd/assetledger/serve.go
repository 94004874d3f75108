package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/assetledger/internal/api/ws"
	"github.com/gosuda/assetledger/internal/assets"
	"github.com/gosuda/assetledger/internal/auth"
	"github.com/gosuda/assetledger/internal/config"
	"github.com/gosuda/assetledger/internal/ledger"
	"github.com/gosuda/assetledger/internal/notify"
	"github.com/gosuda/assetledger/internal/server"
	"github.com/gosuda/assetledger/internal/store/postgres"
	redisstore "github.com/gosuda/assetledger/internal/store/redis"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		seed      []string
		noMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, seed, !noMigrate)
		},
	}
	cmd.Flags().StringArrayVar(&seed, "seed-asset", nil, "asset loaded into the memory store, as ID=Name (repeatable)")
	cmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "skip schema migrations on start (postgres only)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, seed []string, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Store == config.StorePostgres && migrate {
		version, err := postgres.Migrate(cfg.Database.MigrateURL())
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Msg("schema up to date")
	}

	store, closeStore, err := openStore(ctx, cfg, seed)
	if err != nil {
		return err
	}
	defer closeStore()

	// Live timelines only run with Redis; the ledger then has no publisher.
	var (
		publisher ledger.Publisher
		hub       *ws.Hub
	)
	if cfg.Redis.Enabled {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()

		hub = ws.NewHub(pubsub, store.Assets())
		publisher = hub
	}

	alerter := notify.NewSlack(cfg.Slack.BotToken, cfg.Slack.AlertChannel)
	ledgerSvc := ledger.NewService(store.Audit(), publisher, alerter, cfg.Audit.MaxAppendAttempts)

	srv := server.New(ctx, cfg, server.Deps{
		Store:  store,
		Ledger: ledgerSvc,
		Assets: assets.NewService(store.Assets(), ledgerSvc),
		Auth:   auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Hub:    hub,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store).Bool("redis", cfg.Redis.Enabled).Msg("starting server")
		errCh <- srv.Start(ctx)
	}()

	// Block until shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("stopped")
	return nil
}
