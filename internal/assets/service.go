// Package assets applies asset mutations and records each one on the
// asset's audit chain.
package assets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/assetledger/internal/domain"
	"github.com/gosuda/assetledger/internal/ledger"
)

// Recorder appends a change to an entity's audit chain.
type Recorder interface {
	Record(ctx context.Context, change ledger.Change) (*domain.AuditRecord, error)
}

type Service struct {
	repo     domain.AssetRepository
	recorder Recorder
	locks    *ledger.EntityLocker
	now      func() time.Time
}

func NewService(repo domain.AssetRepository, recorder Recorder) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		locks:    ledger.NewEntityLocker(),
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, assetID string) (*domain.Asset, error) {
	a, err := s.repo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("assets.Get: %w", err)
	}
	return a, nil
}

// Assign sets or clears the holder of an asset. The audit record is written
// before the asset row, so a failed update still leaves evidence of the
// attempt. Assigning the current value is a no-op and returns a nil record.
func (s *Service) Assign(ctx context.Context, assetID string, assignedTo *string, actor domain.Actor, metadata map[string]string) (*domain.Asset, *domain.AuditRecord, error) {
	assignedTo = normalize(assignedTo)

	// Hold the asset while old value, record and update line up.
	release := s.locks.Lock(assetID)
	defer release()

	asset, err := s.repo.GetByID(ctx, assetID)
	if err != nil {
		return nil, nil, fmt.Errorf("assets.Assign: %w", err)
	}

	if sameValue(asset.AssignedTo, assignedTo) {
		return asset, nil, nil
	}

	rec, err := s.recorder.Record(ctx, ledger.Change{
		EntityID: assetID,
		Field:    domain.FieldAssignedTo,
		OldValue: asset.AssignedTo,
		NewValue: assignedTo,
		Actor:    actor,
		Metadata: metadata,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("assets.Assign: record: %w", err)
	}

	if err := s.repo.UpdateAssignment(ctx, assetID, assignedTo); err != nil {
		log.Error().Err(err).
			Str("entity_id", assetID).
			Int("chain_index", rec.ChainIndex).
			Msg("asset update failed after audit record was appended")
		return nil, rec, fmt.Errorf("assets.Assign: update: %w", err)
	}

	asset.AssignedTo = assignedTo
	asset.UpdatedAt = s.now()

	return asset, rec, nil
}

// normalize treats a blank assignee as unassigned.
func normalize(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
