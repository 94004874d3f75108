package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/assetledger/internal/config"
	"github.com/gosuda/assetledger/internal/domain"
	"github.com/gosuda/assetledger/internal/server"
	"github.com/gosuda/assetledger/internal/store/memory"
	"github.com/gosuda/assetledger/internal/store/postgres"
)

// recordStore is what both store backends provide.
type recordStore interface {
	server.Store
	Audit() domain.AuditRepository
	Users() domain.UserRepository
}

// defaultSeed is loaded into the memory store when no --seed-asset is given.
var defaultSeed = []string{ //nolint:gochecknoglobals // demo data
	"LAPTOP-001=MacBook Pro 14",
	"LAPTOP-002=ThinkPad X1 Carbon",
	"PHONE-001=Pixel 9",
	"MONITOR-001=Dell U2723QE",
}

// openStore opens the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, seed []string) (recordStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		if len(seed) == 0 {
			seed = defaultSeed
		}
		assets, err := parseSeed(seed)
		if err != nil {
			return nil, nil, err
		}
		log.Warn().Int("assets", len(assets)).Msg("using in-memory store; records are lost on exit")
		return memory.New(assets...), func() {}, nil
	}

	store, err := openPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.Store, error) {
	if cfg.Store != config.StorePostgres {
		return nil, fmt.Errorf("this command needs ASSETLEDGER_STORE=%s, got %q", config.StorePostgres, cfg.Store)
	}
	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	return postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
}

// parseSeed turns "ID=Name" entries into assets.
func parseSeed(entries []string) ([]*domain.Asset, error) {
	assets := make([]*domain.Asset, 0, len(entries))
	for _, e := range entries {
		id, name, ok := strings.Cut(e, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("invalid seed asset %q, want ID=Name", e)
		}
		assets = append(assets, &domain.Asset{ID: id, Name: name, Status: "available"})
	}
	return assets, nil
}
