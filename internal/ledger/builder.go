package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/assetledger/internal/domain"
)

// Change describes a tracked field transition reported by the service that
// performed it.
type Change struct {
	EntityID string
	Field    string
	OldValue *string
	NewValue *string
	Actor    domain.Actor
	Metadata map[string]string
}

// Builder produces the next hash-linked record for a chain. It performs no
// I/O; the clock and id source are injectable for tests.
type Builder struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now, newID: uuid.New}
}

// Build links a record for change onto tail. A nil tail starts a new chain.
func (b *Builder) Build(tail *domain.AuditRecord, change Change) *domain.AuditRecord {
	ts := b.now().UTC().Truncate(time.Millisecond)

	rec := &domain.AuditRecord{
		ID:              b.newID(),
		EntityID:        change.EntityID,
		ChainIndex:      0,
		Timestamp:       ts,
		FieldChanged:    change.Field,
		OldValue:        change.OldValue,
		NewValue:        change.NewValue,
		ChangedByUserID: change.Actor.UserID,
		ChangedByEmail:  change.Actor.Email,
		PreviousHash:    domain.GenesisHash,
		Metadata:        change.Metadata,
	}

	if tail != nil {
		rec.ChainIndex = tail.ChainIndex + 1
		rec.PreviousHash = tail.CurrentHash
		// Timestamps never run backwards along a chain, even under clock skew.
		if ts.Before(tail.Timestamp) {
			rec.Timestamp = tail.Timestamp
		}
	}

	rec.CurrentHash = ComputeHash(rec)
	return rec
}
