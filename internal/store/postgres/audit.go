package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/assetledger/internal/domain"
)

const auditColumns = `id, entity_id, chain_index, timestamp, field_changed, old_value, new_value,
	changed_by_user_id, changed_by_email, previous_hash, current_hash, metadata`

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Append inserts rec only while the entity's stored tail still carries
// rec.PreviousHash. A lost race surfaces either as zero affected rows or as
// a unique violation on (entity_id, chain_index); both map to ErrConflict.
func (r *AuditRepo) Append(ctx context.Context, rec *domain.AuditRecord) error {
	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: marshal metadata: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO audit_chain (`+auditColumns+`)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		 WHERE COALESCE(
		     (SELECT current_hash FROM audit_chain WHERE entity_id = $2 ORDER BY chain_index DESC LIMIT 1),
		     $13::text
		 ) = $10`,
		rec.ID, rec.EntityID, rec.ChainIndex, rec.Timestamp, rec.FieldChanged,
		rec.OldValue, rec.NewValue, rec.ChangedByUserID, rec.ChangedByEmail,
		rec.PreviousHash, rec.CurrentHash, meta, domain.GenesisHash,
	)
	if err != nil {
		return wrapErr("auditRepo.Append", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auditRepo.Append: tail moved for %s: %w", rec.EntityID, domain.ErrConflict)
	}

	return nil
}

func (r *AuditRepo) GetChain(ctx context.Context, entityID string) ([]*domain.AuditRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_chain
		 WHERE entity_id = $1
		 ORDER BY chain_index ASC`,
		entityID,
	)
	if err != nil {
		return nil, wrapErr("auditRepo.GetChain", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows, "auditRepo.GetChain")
}

func (r *AuditRepo) GetTail(ctx context.Context, entityID string) (*domain.AuditRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_chain
		 WHERE entity_id = $1
		 ORDER BY chain_index DESC
		 LIMIT 1`,
		entityID,
	)
	if err != nil {
		return nil, wrapErr("auditRepo.GetTail", err)
	}
	defer rows.Close()

	records, err := scanAuditRecords(rows, "auditRepo.GetTail")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, field string, limit int) ([]*domain.AuditRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_chain
		 WHERE ($1 = '' OR field_changed = $1)
		 ORDER BY timestamp DESC, chain_index DESC
		 LIMIT $2`,
		field, limit,
	)
	if err != nil {
		return nil, wrapErr("auditRepo.ListRecent", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows, "auditRepo.ListRecent")
}

func (r *AuditRepo) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_chain
		 WHERE changed_by_user_id = $1
		 ORDER BY timestamp DESC, chain_index DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, skip,
	)
	if err != nil {
		return nil, wrapErr("auditRepo.ListByUser", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows, "auditRepo.ListByUser")
}

func (r *AuditRepo) Statistics(ctx context.Context, since time.Time) (*domain.AuditStatistics, error) {
	stats := &domain.AuditStatistics{
		ByField:  []domain.FieldCount{},
		TopUsers: []domain.UserCount{},
	}

	err := r.pool.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE timestamp >= $1) FROM audit_chain`,
		since,
	).Scan(&stats.TotalRecords, &stats.RecentCount)
	if err != nil {
		return nil, wrapErr("auditRepo.Statistics: totals", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT field_changed, count(*) AS n FROM audit_chain
		 GROUP BY field_changed
		 ORDER BY n DESC, field_changed ASC`,
	)
	if err != nil {
		return nil, wrapErr("auditRepo.Statistics: by field", err)
	}
	for rows.Next() {
		var fc domain.FieldCount
		if err := rows.Scan(&fc.Field, &fc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("auditRepo.Statistics: scan field: %w", err)
		}
		stats.ByField = append(stats.ByField, fc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("auditRepo.Statistics: by field", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT changed_by_email, count(*) AS n FROM audit_chain
		 GROUP BY changed_by_email
		 ORDER BY n DESC, changed_by_email ASC
		 LIMIT $1`,
		domain.TopUsersLimit,
	)
	if err != nil {
		return nil, wrapErr("auditRepo.Statistics: top users", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uc domain.UserCount
		if err := rows.Scan(&uc.Email, &uc.Count); err != nil {
			return nil, fmt.Errorf("auditRepo.Statistics: scan user: %w", err)
		}
		stats.TopUsers = append(stats.TopUsers, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("auditRepo.Statistics: top users", err)
	}

	return stats, nil
}

func scanAuditRecords(rows pgx.Rows, caller string) ([]*domain.AuditRecord, error) {
	records := []*domain.AuditRecord{}
	for rows.Next() {
		var rec domain.AuditRecord
		var meta []byte

		if err := rows.Scan(
			&rec.ID, &rec.EntityID, &rec.ChainIndex, &rec.Timestamp, &rec.FieldChanged,
			&rec.OldValue, &rec.NewValue, &rec.ChangedByUserID, &rec.ChangedByEmail,
			&rec.PreviousHash, &rec.CurrentHash, &meta,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}

		rec.Timestamp = rec.Timestamp.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("%s: unmarshal metadata: %w", caller, err)
			}
		}
		if len(rec.Metadata) == 0 {
			rec.Metadata = nil
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return records, nil
		}
		return nil, wrapErr(caller, err)
	}

	return records, nil
}
