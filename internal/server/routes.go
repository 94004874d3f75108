package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/assetledger/internal/api/v1"
	"github.com/gosuda/assetledger/internal/api/ws"
)

func registerAuthRoutes(api huma.API, deps Deps) {
	v1.RegisterAuthRoutes(api, deps.Auth)
}

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterAuditRoutes(api, deps.Store, deps.Ledger)
	v1.RegisterAssetRoutes(api, deps.Assets)
	v1.RegisterUserRoutes(api, deps.Auth)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/audit", hub.ServeRecent)
	r.Get("/audit/{assetID}", hub.ServeAudit)
}
