package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gosuda/assetledger/internal/domain"
	"github.com/gosuda/assetledger/internal/server/middleware"
)

type GetAssetInput struct {
	AssetID string `path:"asset_id" minLength:"1" doc:"Asset ID"`
}

type GetAssetOutput struct {
	Body *domain.Asset
}

type AssignAssetInput struct {
	AssetID string `path:"asset_id" minLength:"1" doc:"Asset ID"`
	Body    struct {
		AssignedTo *string           `json:"assigned_to" nullable:"true" maxLength:"255" doc:"New holder; null or blank unassigns"`
		Metadata   map[string]string `json:"metadata,omitempty" doc:"Annotations stored on the audit record"`
	}
}

type AssignAssetOutput struct {
	Body struct {
		Asset  *domain.Asset       `json:"asset"`
		Record *domain.AuditRecord `json:"record"` // null when nothing changed
	}
}

func RegisterAssetRoutes(api huma.API, assets AssetService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}",
		Summary:     "Get an asset",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *GetAssetInput) (*GetAssetOutput, error) {
		asset, err := assets.Get(ctx, input.AssetID)
		if err != nil {
			return nil, storeError(err, "asset not found", "failed to get asset")
		}
		return &GetAssetOutput{Body: asset}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-asset",
		Method:      http.MethodPatch,
		Path:        "/assets/{asset_id}/assignment",
		Summary:     "Assign or unassign an asset",
		Description: "Appends an assignedTo record to the asset's audit chain before the asset is updated. Assigning the current holder is a no-op.",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *AssignAssetInput) (*AssignAssetOutput, error) {
		role, _ := middleware.RoleFromContext(ctx)
		if !middleware.CanWrite(role) {
			return nil, huma.Error403Forbidden("role may not modify assets")
		}

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		metadata := input.Body.Metadata
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			if metadata == nil {
				metadata = make(map[string]string, 1)
			}
			metadata["request_id"] = reqID
		}

		asset, rec, err := assets.Assign(ctx, input.AssetID, input.Body.AssignedTo, actor, metadata)
		if err != nil {
			return nil, storeError(err, "asset not found", "failed to assign asset")
		}

		out := &AssignAssetOutput{}
		out.Body.Asset = asset
		out.Body.Record = rec
		return out, nil
	})
}
