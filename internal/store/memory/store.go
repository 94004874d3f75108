package memory

import (
	"context"

	"github.com/gosuda/assetledger/internal/domain"
)

// Store groups the in-memory repositories behind the same accessors as
// postgres.Store.
type Store struct {
	audit  *AuditRepo
	assets *AssetRepo
	users  *UserRepo
}

func New(seed ...*domain.Asset) *Store {
	return &Store{
		audit:  NewAuditRepo(),
		assets: NewAssetRepo(seed...),
		users:  NewUserRepo(),
	}
}

func (s *Store) Audit() domain.AuditRepository  { return s.audit }
func (s *Store) Assets() domain.AssetRepository { return s.assets }
func (s *Store) Users() domain.UserRepository   { return s.users }

// Ping always succeeds; the process itself is the store.
func (s *Store) Ping(context.Context) error { return nil }
