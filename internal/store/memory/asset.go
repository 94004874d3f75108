package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gosuda/assetledger/internal/domain"
)

type AssetRepo struct {
	mu     sync.RWMutex
	assets map[string]*domain.Asset
}

// NewAssetRepo creates a repo seeded with the given assets.
func NewAssetRepo(seed ...*domain.Asset) *AssetRepo {
	r := &AssetRepo{assets: make(map[string]*domain.Asset, len(seed))}
	for _, a := range seed {
		c := *a
		r.assets[a.ID] = &c
	}
	return r
}

func (r *AssetRepo) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("memory.AssetRepo.GetByID: %w", domain.ErrNotFound)
	}
	c := *a
	return &c, nil
}

func (r *AssetRepo) NamesByID(_ context.Context, ids []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if a, ok := r.assets[id]; ok {
			names[id] = a.Name
		}
	}
	return names, nil
}

func (r *AssetRepo) UpdateAssignment(_ context.Context, id string, assignedTo *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return fmt.Errorf("memory.AssetRepo.UpdateAssignment: %w", domain.ErrNotFound)
	}
	if assignedTo != nil {
		v := *assignedTo
		assignedTo = &v
	}
	a.AssignedTo = assignedTo
	a.UpdatedAt = time.Now()
	return nil
}
