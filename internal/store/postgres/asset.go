package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/assetledger/internal/domain"
)

type AssetRepo struct {
	pool *pgxpool.Pool
}

func NewAssetRepo(pool *pgxpool.Pool) *AssetRepo {
	return &AssetRepo{pool: pool}
}

func (r *AssetRepo) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	var a domain.Asset

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, category, status, assigned_to, updated_at
		 FROM assets WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Category, &a.Status, &a.AssignedTo, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assetRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("assetRepo.GetByID", err)
	}

	return &a, nil
}

func (r *AssetRepo) NamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM assets WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, wrapErr("assetRepo.NamesByID", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("assetRepo.NamesByID: scan: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("assetRepo.NamesByID", err)
	}

	return names, nil
}

func (r *AssetRepo) UpdateAssignment(ctx context.Context, id string, assignedTo *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET assigned_to = $1, updated_at = now() WHERE id = $2`,
		assignedTo, id,
	)
	if err != nil {
		return wrapErr("assetRepo.UpdateAssignment", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assetRepo.UpdateAssignment: %w", domain.ErrNotFound)
	}

	return nil
}
