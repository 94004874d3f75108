package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the previous hash of the first record in every chain.
const GenesisHash = "GENESIS"

// FieldAssignedTo is the asset attribute tracked by the assignment flow.
const FieldAssignedTo = "assignedTo"

// AuditRecord is one immutable entry in an entity's hash-chained change ledger.
type AuditRecord struct {
	ID              uuid.UUID         `json:"id"`
	EntityID        string            `json:"asset_id"`
	ChainIndex      int               `json:"chain_index"`
	Timestamp       time.Time         `json:"timestamp"`
	FieldChanged    string            `json:"field_changed"`
	OldValue        *string           `json:"old_value"`
	NewValue        *string           `json:"new_value"`
	ChangedByUserID uuid.UUID         `json:"changed_by_user_id"`
	ChangedByEmail  string            `json:"changed_by_email"`
	PreviousHash    string            `json:"previous_hash"`
	CurrentHash     string            `json:"current_hash"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ChainFailure names the check that rejected a record during verification.
type ChainFailure string

const (
	ChainFailureContentHash ChainFailure = "content_hash_mismatch"
	ChainFailureGenesis     ChainFailure = "genesis_mismatch"
	ChainFailureBrokenLink  ChainFailure = "broken_link"
	ChainFailureIndexGap    ChainFailure = "index_gap"
)

// ChainVerification is the outcome of walking one entity's chain.
// BrokenAtIndex, ErrorMessage and Failure are nil when IsValid is true.
type ChainVerification struct {
	IsValid         bool          `json:"is_valid"`
	TotalRecords    int           `json:"total_records"`
	VerifiedRecords int           `json:"verified_records"`
	BrokenAtIndex   *int          `json:"broken_at_index"`
	ErrorMessage    *string       `json:"error_message"`
	Failure         *ChainFailure `json:"failure"`
}

type FieldCount struct {
	Field string `json:"field"`
	Count int64  `json:"count"`
}

type UserCount struct {
	Email string `json:"email"`
	Count int64  `json:"count"`
}

// TopUsersLimit caps AuditStatistics.TopUsers.
const TopUsersLimit = 10

// AuditStatistics aggregates the whole ledger.
type AuditStatistics struct {
	TotalRecords int64        `json:"total_records"`
	RecentCount  int64        `json:"recent_7_days"`
	ByField      []FieldCount `json:"by_field"`
	TopUsers     []UserCount  `json:"top_users"`
}

// AuditRepository is the append-only chain record store. Implementations
// must reject an Append whose (EntityID, ChainIndex) is taken or whose
// PreviousHash no longer matches the stored tail with ErrConflict.
type AuditRepository interface {
	Append(ctx context.Context, rec *AuditRecord) error
	GetChain(ctx context.Context, entityID string) ([]*AuditRecord, error)
	GetTail(ctx context.Context, entityID string) (*AuditRecord, error) // nil, nil when empty
	ListRecent(ctx context.Context, field string, limit int) ([]*AuditRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*AuditRecord, error)
	Statistics(ctx context.Context, since time.Time) (*AuditStatistics, error)
}
