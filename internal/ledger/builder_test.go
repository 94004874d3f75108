package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/assetledger/internal/domain"
)

func strPtr(s string) *string { return &s }

func fixedBuilder(now time.Time) *Builder {
	return &Builder{
		now:   func() time.Time { return now },
		newID: uuid.New,
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	actor := domain.Actor{UserID: uuid.New(), Email: "admin@co.com"}
	now := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.FixedZone("KST", 9*3600))

	t.Run("genesis record", func(t *testing.T) {
		t.Parallel()

		b := fixedBuilder(now)
		rec := b.Build(nil, Change{
			EntityID: "A-1", Field: domain.FieldAssignedTo,
			NewValue: strPtr("alice@co.com"), Actor: actor,
		})

		assert.Equal(t, 0, rec.ChainIndex)
		assert.Equal(t, domain.GenesisHash, rec.PreviousHash)
		assert.Nil(t, rec.OldValue)
		assert.Equal(t, "alice@co.com", *rec.NewValue)
		assert.Equal(t, actor.UserID, rec.ChangedByUserID)
		assert.Equal(t, actor.Email, rec.ChangedByEmail)
		assert.NotEqual(t, uuid.Nil, rec.ID)
		assert.Equal(t, ComputeHash(rec), rec.CurrentHash)
		assert.Len(t, rec.CurrentHash, 64)
	})

	t.Run("timestamp is UTC with millisecond precision", func(t *testing.T) {
		t.Parallel()

		rec := fixedBuilder(now).Build(nil, Change{EntityID: "A-1", Field: "status", Actor: actor})

		assert.Equal(t, time.UTC, rec.Timestamp.Location())
		assert.Equal(t, now.UTC().Truncate(time.Millisecond), rec.Timestamp)
		assert.Zero(t, rec.Timestamp.Nanosecond()%int(time.Millisecond))
	})

	t.Run("links onto tail", func(t *testing.T) {
		t.Parallel()

		b := fixedBuilder(now)
		first := b.Build(nil, Change{EntityID: "A-1", Field: domain.FieldAssignedTo, NewValue: strPtr("alice@co.com"), Actor: actor})
		second := b.Build(first, Change{
			EntityID: "A-1", Field: domain.FieldAssignedTo,
			OldValue: strPtr("alice@co.com"), NewValue: strPtr("bob@co.com"), Actor: actor,
		})

		assert.Equal(t, 1, second.ChainIndex)
		assert.Equal(t, first.CurrentHash, second.PreviousHash)
		assert.NotEqual(t, first.CurrentHash, second.CurrentHash)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("clock behind tail keeps timestamps non-decreasing", func(t *testing.T) {
		t.Parallel()

		tail := fixedBuilder(now).Build(nil, Change{EntityID: "A-1", Field: "status", Actor: actor})
		next := fixedBuilder(now.Add(-time.Hour)).Build(tail, Change{EntityID: "A-1", Field: "status", Actor: actor})

		assert.Equal(t, tail.Timestamp, next.Timestamp)
		assert.Equal(t, ComputeHash(next), next.CurrentHash)
	})

	t.Run("pure apart from id and clock", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		b := &Builder{now: func() time.Time { return now }, newID: func() uuid.UUID { return id }}
		change := Change{EntityID: "A-1", Field: "status", NewValue: strPtr("retired"), Actor: actor}

		assert.Equal(t, b.Build(nil, change), b.Build(nil, change))
	})
}

func TestComputeHash(t *testing.T) {
	t.Parallel()

	base := func() *domain.AuditRecord {
		return &domain.AuditRecord{
			ID:              uuid.MustParse("11111111-2222-3333-4444-555555555555"),
			EntityID:        "A-1",
			ChainIndex:      3,
			Timestamp:       time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC),
			FieldChanged:    domain.FieldAssignedTo,
			OldValue:        strPtr("alice@co.com"),
			NewValue:        strPtr("bob@co.com"),
			ChangedByUserID: uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"),
			ChangedByEmail:  "admin@co.com",
			PreviousHash:    "abc123",
			Metadata:        map[string]string{"request_id": "r-1"},
		}
	}

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, ComputeHash(base()), ComputeHash(base()))
	})

	t.Run("ignores current hash", func(t *testing.T) {
		t.Parallel()

		a, b := base(), base()
		b.CurrentHash = "whatever"
		assert.Equal(t, ComputeHash(a), ComputeHash(b))
	})

	t.Run("same instant in another zone", func(t *testing.T) {
		t.Parallel()

		r := base()
		r.Timestamp = r.Timestamp.In(time.FixedZone("PST", -8*60*60))
		assert.Equal(t, ComputeHash(base()), ComputeHash(r))
	})

	mutations := map[string]func(r *domain.AuditRecord){
		"id":           func(r *domain.AuditRecord) { r.ID = uuid.New() },
		"entity":       func(r *domain.AuditRecord) { r.EntityID = "A-2" },
		"chain index":  func(r *domain.AuditRecord) { r.ChainIndex = 4 },
		"timestamp":    func(r *domain.AuditRecord) { r.Timestamp = r.Timestamp.Add(time.Millisecond) },
		"timestamp us": func(r *domain.AuditRecord) { r.Timestamp = r.Timestamp.Add(time.Microsecond) },
		"field":        func(r *domain.AuditRecord) { r.FieldChanged = "status" },
		"old value":    func(r *domain.AuditRecord) { r.OldValue = strPtr("mallory@co.com") },
		"old to nil":   func(r *domain.AuditRecord) { r.OldValue = nil },
		"new value":    func(r *domain.AuditRecord) { r.NewValue = strPtr("mallory@co.com") },
		"user id":      func(r *domain.AuditRecord) { r.ChangedByUserID = uuid.New() },
		"email":        func(r *domain.AuditRecord) { r.ChangedByEmail = "root@co.com" },
		"metadata":     func(r *domain.AuditRecord) { r.Metadata["request_id"] = "r-2" },
		"prev hash":    func(r *domain.AuditRecord) { r.PreviousHash = "def456" },
	}
	for name, mutate := range mutations {
		t.Run("detects "+name, func(t *testing.T) {
			t.Parallel()

			r := base()
			mutate(r)
			assert.NotEqual(t, ComputeHash(base()), ComputeHash(r))
		})
	}

	t.Run("nil and empty values differ", func(t *testing.T) {
		t.Parallel()

		a, b := base(), base()
		a.OldValue = nil
		b.OldValue = strPtr("")
		assert.NotEqual(t, ComputeHash(a), ComputeHash(b))
	})

	t.Run("separator inside values cannot shift boundaries", func(t *testing.T) {
		t.Parallel()

		a, b := base(), base()
		a.OldValue, a.NewValue = strPtr("x|y"), strPtr("z")
		b.OldValue, b.NewValue = strPtr("x"), strPtr("y|z")
		assert.NotEqual(t, ComputeHash(a), ComputeHash(b))
	})

	t.Run("metadata key order is irrelevant", func(t *testing.T) {
		t.Parallel()

		a, b := base(), base()
		a.Metadata = map[string]string{"a": "1", "b": "2", "c": "3"}
		b.Metadata = map[string]string{"c": "3", "a": "1", "b": "2"}
		require.Equal(t, ComputeHash(a), ComputeHash(b))
	})
}
