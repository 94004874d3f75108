package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/assetledger/internal/domain"
)

// ErrInvalidChange is returned by Record for a change without an entity or field.
var ErrInvalidChange = errors.New("ledger: invalid change")

const (
	DefaultMaxAttempts = 5

	DefaultRecentLimit = 20
	DefaultUserLimit   = 50
	MaxListLimit       = 200

	statisticsWindow = 7 * 24 * time.Hour
)

// Publisher fans a freshly appended record out to live subscribers.
type Publisher interface {
	PublishRecord(ctx context.Context, rec *domain.AuditRecord) error
}

// Alerter is told about every chain that fails verification.
type Alerter interface {
	AlertIntegrity(ctx context.Context, entityID string, v domain.ChainVerification) error
}

// Service appends to and reads from the audit chains. Appends are
// serialized per entity; different entities proceed in parallel.
type Service struct {
	repo        domain.AuditRepository
	builder     *Builder
	locks       *EntityLocker
	publisher   Publisher // may be nil
	alerter     Alerter   // may be nil
	maxAttempts int
	now         func() time.Time
}

// NewService creates a ledger service. publisher and alerter may be nil;
// maxAttempts < 1 falls back to DefaultMaxAttempts.
func NewService(repo domain.AuditRepository, publisher Publisher, alerter Alerter, maxAttempts int) *Service {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		repo:        repo,
		builder:     NewBuilder(),
		locks:       NewEntityLocker(),
		publisher:   publisher,
		alerter:     alerter,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Record appends change to its entity's chain and returns the stored record.
// A conflicting append (another writer moved the tail) is retried against
// the fresh tail up to maxAttempts times before ErrConflict is returned.
func (s *Service) Record(ctx context.Context, change Change) (*domain.AuditRecord, error) {
	if change.EntityID == "" || change.Field == "" {
		return nil, fmt.Errorf("ledger.Service.Record: %w", ErrInvalidChange)
	}

	release := s.locks.Lock(change.EntityID)
	defer release()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ledger.Service.Record: %w", err)
		}

		tail, err := s.repo.GetTail(ctx, change.EntityID)
		if err != nil {
			return nil, fmt.Errorf("ledger.Service.Record: read tail: %w", err)
		}

		rec := s.builder.Build(tail, change)

		err = s.repo.Append(ctx, rec)
		if err == nil {
			s.publish(ctx, rec)
			return rec, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("ledger.Service.Record: append: %w", err)
		}

		lastErr = err
		log.Debug().
			Str("entity_id", change.EntityID).
			Int("chain_index", rec.ChainIndex).
			Int("attempt", attempt).
			Msg("ledger: append conflict, retrying with fresh tail")
	}

	return nil, fmt.Errorf("ledger.Service.Record: gave up after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Service) publish(ctx context.Context, rec *domain.AuditRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecord(ctx, rec); err != nil {
		log.Warn().Err(err).Str("entity_id", rec.EntityID).Int("chain_index", rec.ChainIndex).
			Msg("ledger: failed to publish appended record")
	}
}

// Chain returns the entity's full chain in ascending order; empty when the
// entity has no history. The chain is verified on every read and tampering
// is reported, never repaired.
func (s *Service) Chain(ctx context.Context, entityID string) ([]*domain.AuditRecord, error) {
	records, err := s.repo.GetChain(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("ledger.Service.Chain: %w", err)
	}

	s.report(ctx, entityID, Verify(records))

	return records, nil
}

// Verify recomputes entityID's chain from the store. Results are never cached.
func (s *Service) Verify(ctx context.Context, entityID string) (domain.ChainVerification, error) {
	records, err := s.repo.GetChain(ctx, entityID)
	if err != nil {
		return domain.ChainVerification{}, fmt.Errorf("ledger.Service.Verify: %w", err)
	}

	v := Verify(records)
	s.report(ctx, entityID, v)

	return v, nil
}

func (s *Service) report(ctx context.Context, entityID string, v domain.ChainVerification) {
	if v.IsValid {
		return
	}

	log.Warn().
		Str("entity_id", entityID).
		Int("broken_at_index", *v.BrokenAtIndex).
		Int("total_records", v.TotalRecords).
		Str("error", *v.ErrorMessage).
		Msg("SECURITY ALERT: audit chain compromised")

	if s.alerter == nil {
		return
	}
	if err := s.alerter.AlertIntegrity(ctx, entityID, v); err != nil {
		log.Error().Err(err).Str("entity_id", entityID).Msg("ledger: failed to send integrity alert")
	}
}

// Recent returns the newest records across all entities, optionally
// restricted to one field.
func (s *Service) Recent(ctx context.Context, field string, limit int) ([]*domain.AuditRecord, error) {
	records, err := s.repo.ListRecent(ctx, field, clampLimit(limit, DefaultRecentLimit))
	if err != nil {
		return nil, fmt.Errorf("ledger.Service.Recent: %w", err)
	}
	return records, nil
}

// UserChanges pages through the records made by userID, newest first.
func (s *Service) UserChanges(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditRecord, error) {
	skip = max(skip, 0)

	records, err := s.repo.ListByUser(ctx, userID, skip, clampLimit(limit, DefaultUserLimit))
	if err != nil {
		return nil, fmt.Errorf("ledger.Service.UserChanges: %w", err)
	}
	return records, nil
}

// Statistics aggregates the ledger; the recent window is the last seven days.
func (s *Service) Statistics(ctx context.Context) (*domain.AuditStatistics, error) {
	stats, err := s.repo.Statistics(ctx, s.now().Add(-statisticsWindow))
	if err != nil {
		return nil, fmt.Errorf("ledger.Service.Statistics: %w", err)
	}
	return stats, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, MaxListLimit)
}
