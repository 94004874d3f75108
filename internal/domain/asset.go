package domain

import (
	"context"
	"time"
)

type Asset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	AssignedTo *string   `json:"assigned_to"` // nil when unassigned
	UpdatedAt  time.Time `json:"updated_at"`
}

type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*Asset, error)
	// NamesByID returns id -> name for the assets that exist; unknown ids are omitted.
	NamesByID(ctx context.Context, ids []string) (map[string]string, error)
	UpdateAssignment(ctx context.Context, id string, assignedTo *string) error
}
