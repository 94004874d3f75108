package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/assetledger/internal/domain"
	"github.com/gosuda/assetledger/internal/server/middleware"
)

type GetMeOutput struct {
	Body *domain.User
}

// RegisterUserRoutes mounts the caller's own profile. It needs the
// authenticated group.
func RegisterUserRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-current-user",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get the authenticated user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*GetMeOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		user, err := authSvc.GetUser(ctx, userID)
		if err != nil {
			return nil, storeError(err, "user not found", "failed to get user")
		}
		return &GetMeOutput{Body: user}, nil
	})
}
