package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/assetledger/internal/auth"
	"github.com/gosuda/assetledger/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store and *memory.Store satisfy this interface.
type DataStore interface {
	Assets() domain.AssetRepository
}

// LedgerService abstracts the audit query operations for handler testing.
// *ledger.Service satisfies this interface.
type LedgerService interface {
	Chain(ctx context.Context, entityID string) ([]*domain.AuditRecord, error)
	Verify(ctx context.Context, entityID string) (domain.ChainVerification, error)
	Recent(ctx context.Context, field string, limit int) ([]*domain.AuditRecord, error)
	UserChanges(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditRecord, error)
	Statistics(ctx context.Context) (*domain.AuditStatistics, error)
}

// AssetService abstracts asset reads and audited mutations.
// *assets.Service satisfies this interface.
type AssetService interface {
	Get(ctx context.Context, assetID string) (*domain.Asset, error)
	Assign(ctx context.Context, assetID string, assignedTo *string, actor domain.Actor, metadata map[string]string) (*domain.Asset, *domain.AuditRecord, error)
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}
