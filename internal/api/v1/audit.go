package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/assetledger/internal/domain"
)

// unknownAssetName labels changes whose asset no longer resolves.
const unknownAssetName = "Unknown"

// AuditChange is a ledger record enriched with its asset's display name.
type AuditChange struct {
	domain.AuditRecord
	AssetName string `json:"asset_name"`
}

type GetAssetChainInput struct {
	AssetID string `path:"asset_id" minLength:"1" doc:"Asset ID"`
}

type GetAssetChainOutput struct {
	Body struct {
		AssetID      string                `json:"asset_id"`
		AssetName    string                `json:"asset_name"`
		TotalChanges int                   `json:"total_changes"`
		Records      []*domain.AuditRecord `json:"records"`
	}
}

type VerifyAssetChainInput struct {
	AssetID string `path:"asset_id" minLength:"1" doc:"Asset ID"`
}

type VerifyAssetChainOutput struct {
	Body domain.ChainVerification
}

type ListRecentChangesInput struct {
	Limit int    `query:"limit" default:"20" doc:"Maximum number of changes (clamped to 1..200)"`
	Field string `query:"field" doc:"Only changes to this field"`
}

type ListRecentChangesOutput struct {
	Body struct {
		TotalChanges int           `json:"total_changes"`
		Changes      []AuditChange `json:"changes"`
	}
}

type ListUserChangesInput struct {
	UserID uuid.UUID `path:"user_id" doc:"User ID"`
	Skip   int       `query:"skip" default:"0" doc:"Number of changes to skip"`
	Limit  int       `query:"limit" default:"50" doc:"Maximum number of changes (clamped to 1..200)"`
}

type ListUserChangesOutput struct {
	Body struct {
		UserID       uuid.UUID     `json:"user_id"`
		TotalChanges int           `json:"total_changes"`
		Changes      []AuditChange `json:"changes"`
	}
}

type GetAuditStatisticsOutput struct {
	Body *domain.AuditStatistics
}

func RegisterAuditRoutes(api huma.API, store DataStore, ledger LedgerService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-asset-audit-chain",
		Method:      http.MethodGet,
		Path:        "/audit/asset/{asset_id}",
		Summary:     "Get the complete audit chain for an asset",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *GetAssetChainInput) (*GetAssetChainOutput, error) {
		asset, err := store.Assets().GetByID(ctx, input.AssetID)
		if err != nil {
			return nil, storeError(err, "asset not found", "failed to get asset")
		}

		records, err := ledger.Chain(ctx, input.AssetID)
		if err != nil {
			return nil, storeError(err, "asset not found", "failed to get audit chain")
		}

		out := &GetAssetChainOutput{}
		out.Body.AssetID = asset.ID
		out.Body.AssetName = asset.Name
		out.Body.TotalChanges = len(records)
		out.Body.Records = records
		if out.Body.Records == nil {
			out.Body.Records = []*domain.AuditRecord{}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "verify-asset-audit-chain",
		Method:      http.MethodGet,
		Path:        "/audit/asset/{asset_id}/verify",
		Summary:     "Verify the integrity of an asset's audit chain",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *VerifyAssetChainInput) (*VerifyAssetChainOutput, error) {
		if _, err := store.Assets().GetByID(ctx, input.AssetID); err != nil {
			return nil, storeError(err, "asset not found", "failed to get asset")
		}

		v, err := ledger.Verify(ctx, input.AssetID)
		if err != nil {
			return nil, storeError(err, "asset not found", "failed to verify audit chain")
		}

		return &VerifyAssetChainOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-recent-audit-changes",
		Method:      http.MethodGet,
		Path:        "/audit/recent",
		Summary:     "List recent audit changes across all assets",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListRecentChangesInput) (*ListRecentChangesOutput, error) {
		records, err := ledger.Recent(ctx, input.Field, input.Limit)
		if err != nil {
			return nil, storeError(err, "not found", "failed to list recent changes")
		}

		changes, err := enrich(ctx, store, records)
		if err != nil {
			return nil, storeError(err, "not found", "failed to resolve asset names")
		}

		out := &ListRecentChangesOutput{}
		out.Body.TotalChanges = len(changes)
		out.Body.Changes = changes
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-user-audit-changes",
		Method:      http.MethodGet,
		Path:        "/audit/user/{user_id}/changes",
		Summary:     "List the changes made by a user",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListUserChangesInput) (*ListUserChangesOutput, error) {
		records, err := ledger.UserChanges(ctx, input.UserID, input.Skip, input.Limit)
		if err != nil {
			return nil, storeError(err, "not found", "failed to list user changes")
		}

		changes, err := enrich(ctx, store, records)
		if err != nil {
			return nil, storeError(err, "not found", "failed to resolve asset names")
		}

		out := &ListUserChangesOutput{}
		out.Body.UserID = input.UserID
		out.Body.TotalChanges = len(changes)
		out.Body.Changes = changes
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-statistics",
		Method:      http.MethodGet,
		Path:        "/audit/statistics",
		Summary:     "Get audit ledger statistics",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, _ *struct{}) (*GetAuditStatisticsOutput, error) {
		stats, err := ledger.Statistics(ctx)
		if err != nil {
			return nil, storeError(err, "not found", "failed to compute statistics")
		}
		return &GetAuditStatisticsOutput{Body: stats}, nil
	})
}

// enrich attaches asset names with one batched lookup.
func enrich(ctx context.Context, store DataStore, records []*domain.AuditRecord) ([]AuditChange, error) {
	changes := make([]AuditChange, 0, len(records))
	if len(records) == 0 {
		return changes, nil
	}

	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.EntityID]; !ok {
			seen[rec.EntityID] = struct{}{}
			ids = append(ids, rec.EntityID)
		}
	}

	names, err := store.Assets().NamesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		name, ok := names[rec.EntityID]
		if !ok {
			name = unknownAssetName
		}
		changes = append(changes, AuditChange{AuditRecord: *rec, AssetName: name})
	}

	return changes, nil
}
