package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gosuda/assetledger/internal/config"
	"github.com/gosuda/assetledger/internal/domain"
	"github.com/gosuda/assetledger/internal/ledger"
)

// errChainBroken makes the process exit non-zero after the report is printed.
var errChainBroken = errors.New("audit chain failed verification")

func newVerifyCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <asset-id>",
		Short: "Verify one asset's audit chain and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return verifyChain(ctx, cmd.OutOrStdout(), store.Audit(), args[0])
		},
	}
}

func verifyChain(ctx context.Context, w io.Writer, repo domain.AuditRepository, entityID string) error {
	records, err := repo.GetChain(ctx, entityID)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	v := ledger.Verify(records)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		AssetID string `json:"asset_id"`
		domain.ChainVerification
	}{entityID, v}); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if !v.IsValid {
		return fmt.Errorf("%s: %w", entityID, errChainBroken)
	}
	return nil
}
