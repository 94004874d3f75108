// Package memory provides an in-process chain record store with the same
// append semantics as the PostgreSQL store. It backs tests and
// `serve --store=memory` development runs.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/assetledger/internal/domain"
)

type AuditRepo struct {
	mu     sync.RWMutex
	chains map[string][]*domain.AuditRecord
	log    []*domain.AuditRecord // every record in append order
}

func NewAuditRepo() *AuditRepo {
	return &AuditRepo{chains: make(map[string][]*domain.AuditRecord)}
}

// Append stores a copy of rec if it extends the current tail of its chain.
func (r *AuditRepo) Append(_ context.Context, rec *domain.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain := r.chains[rec.EntityID]

	expectedPrev := domain.GenesisHash
	if n := len(chain); n > 0 {
		expectedPrev = chain[n-1].CurrentHash
	}
	if rec.ChainIndex != len(chain) || rec.PreviousHash != expectedPrev {
		return fmt.Errorf("memory.AuditRepo.Append: entity %s index %d: %w", rec.EntityID, rec.ChainIndex, domain.ErrConflict)
	}

	stored := clone(rec)
	r.chains[rec.EntityID] = append(chain, stored)
	r.log = append(r.log, stored)

	return nil
}

func (r *AuditRepo) GetChain(_ context.Context, entityID string) ([]*domain.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[entityID]
	out := make([]*domain.AuditRecord, 0, len(chain))
	for _, rec := range chain {
		out = append(out, clone(rec))
	}
	return out, nil
}

func (r *AuditRepo) GetTail(_ context.Context, entityID string) (*domain.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[entityID]
	if len(chain) == 0 {
		return nil, nil
	}
	return clone(chain[len(chain)-1]), nil
}

func (r *AuditRepo) ListRecent(_ context.Context, field string, limit int) ([]*domain.AuditRecord, error) {
	return r.newest(func(rec *domain.AuditRecord) bool {
		return field == "" || rec.FieldChanged == field
	}, 0, limit), nil
}

func (r *AuditRepo) ListByUser(_ context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditRecord, error) {
	return r.newest(func(rec *domain.AuditRecord) bool {
		return rec.ChangedByUserID == userID
	}, skip, limit), nil
}

// newest returns matching records by descending timestamp; ties keep the
// later-appended record first.
func (r *AuditRepo) newest(match func(*domain.AuditRecord) bool, skip, limit int) []*domain.AuditRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.AuditRecord
	for i := len(r.log) - 1; i >= 0; i-- {
		if match(r.log[i]) {
			matched = append(matched, r.log[i])
		}
	}
	slices.SortStableFunc(matched, func(a, b *domain.AuditRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if skip >= len(matched) {
		return []*domain.AuditRecord{}
	}
	matched = matched[skip:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*domain.AuditRecord, 0, len(matched))
	for _, rec := range matched {
		out = append(out, clone(rec))
	}
	return out
}

func (r *AuditRepo) Statistics(_ context.Context, since time.Time) (*domain.AuditStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byField := make(map[string]int64)
	byUser := make(map[string]int64)
	stats := &domain.AuditStatistics{
		TotalRecords: int64(len(r.log)),
		ByField:      []domain.FieldCount{},
		TopUsers:     []domain.UserCount{},
	}

	for _, rec := range r.log {
		byField[rec.FieldChanged]++
		byUser[rec.ChangedByEmail]++
		if !rec.Timestamp.Before(since) {
			stats.RecentCount++
		}
	}

	for _, f := range slices.Sorted(maps.Keys(byField)) {
		stats.ByField = append(stats.ByField, domain.FieldCount{Field: f, Count: byField[f]})
	}
	slices.SortStableFunc(stats.ByField, func(a, b domain.FieldCount) int { return cmp.Compare(b.Count, a.Count) })

	for _, e := range slices.Sorted(maps.Keys(byUser)) {
		stats.TopUsers = append(stats.TopUsers, domain.UserCount{Email: e, Count: byUser[e]})
	}
	slices.SortStableFunc(stats.TopUsers, func(a, b domain.UserCount) int { return cmp.Compare(b.Count, a.Count) })
	if len(stats.TopUsers) > domain.TopUsersLimit {
		stats.TopUsers = stats.TopUsers[:domain.TopUsersLimit]
	}

	return stats, nil
}

func clone(rec *domain.AuditRecord) *domain.AuditRecord {
	c := *rec
	if rec.OldValue != nil {
		v := *rec.OldValue
		c.OldValue = &v
	}
	if rec.NewValue != nil {
		v := *rec.NewValue
		c.NewValue = &v
	}
	c.Metadata = maps.Clone(rec.Metadata)
	return &c
}
