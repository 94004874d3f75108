package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/assetledger/internal/auth"
	"github.com/gosuda/assetledger/internal/domain"
	"github.com/gosuda/assetledger/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the authenticated caller for DoCtx
// ---------------------------------------------------------------------------

var (
	aliceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bobID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func userCtx(id uuid.UUID, email, role string) context.Context {
	return middleware.WithIdentity(context.Background(), id, email, role)
}

func memberCtx() context.Context { return userCtx(aliceID, "alice@example.com", middleware.RoleMember) }
func viewerCtx() context.Context { return userCtx(bobID, "bob@example.com", middleware.RoleViewer) }

func ptr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Mock DataStore / AssetRepository
// ---------------------------------------------------------------------------

type mockDataStore struct {
	assets domain.AssetRepository
}

func (m *mockDataStore) Assets() domain.AssetRepository { return m.assets }

type mockAssetRepo struct {
	getByIDFunc          func(ctx context.Context, id string) (*domain.Asset, error)
	namesByIDFunc        func(ctx context.Context, ids []string) (map[string]string, error)
	updateAssignmentFunc func(ctx context.Context, id string, assignedTo *string) error
}

func (m *mockAssetRepo) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockAssetRepo) NamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	return m.namesByIDFunc(ctx, ids)
}

func (m *mockAssetRepo) UpdateAssignment(ctx context.Context, id string, assignedTo *string) error {
	return m.updateAssignmentFunc(ctx, id, assignedTo)
}

// ---------------------------------------------------------------------------
// Mock LedgerService
// ---------------------------------------------------------------------------

type mockLedger struct {
	chainFunc       func(ctx context.Context, entityID string) ([]*domain.AuditRecord, error)
	verifyFunc      func(ctx context.Context, entityID string) (domain.ChainVerification, error)
	recentFunc      func(ctx context.Context, field string, limit int) ([]*domain.AuditRecord, error)
	userChangesFunc func(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditRecord, error)
	statisticsFunc  func(ctx context.Context) (*domain.AuditStatistics, error)
}

func (m *mockLedger) Chain(ctx context.Context, entityID string) ([]*domain.AuditRecord, error) {
	return m.chainFunc(ctx, entityID)
}

func (m *mockLedger) Verify(ctx context.Context, entityID string) (domain.ChainVerification, error) {
	return m.verifyFunc(ctx, entityID)
}

func (m *mockLedger) Recent(ctx context.Context, field string, limit int) ([]*domain.AuditRecord, error) {
	return m.recentFunc(ctx, field, limit)
}

func (m *mockLedger) UserChanges(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditRecord, error) {
	return m.userChangesFunc(ctx, userID, skip, limit)
}

func (m *mockLedger) Statistics(ctx context.Context) (*domain.AuditStatistics, error) {
	return m.statisticsFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock AssetService
// ---------------------------------------------------------------------------

type mockAssetService struct {
	getFunc    func(ctx context.Context, assetID string) (*domain.Asset, error)
	assignFunc func(ctx context.Context, assetID string, assignedTo *string, actor domain.Actor, metadata map[string]string) (*domain.Asset, *domain.AuditRecord, error)
}

func (m *mockAssetService) Get(ctx context.Context, assetID string) (*domain.Asset, error) {
	return m.getFunc(ctx, assetID)
}

func (m *mockAssetService) Assign(ctx context.Context, assetID string, assignedTo *string, actor domain.Actor, metadata map[string]string) (*domain.Asset, *domain.AuditRecord, error) {
	return m.assignFunc(ctx, assetID, assignedTo, actor, metadata)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (*auth.TokenPair, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	getUserFunc      func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getUserFunc(ctx, userID)
}
