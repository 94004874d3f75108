// Package ledger implements the hash-chained audit trail for tracked
// entities: building linked records, verifying stored chains and the
// query surface the audit views read from.
//
// Each record's hash is SHA-256 over a canonical serialization of every
// stored field except the hash itself:
//
//	id | timestamp | entity | chain index | field | old | new | actor id | actor email | metadata | previous hash
//
// The timestamp is hashed at full precision in UTC (RFC 3339, nanoseconds)
// so a sub-millisecond edit to a stored record still changes the digest.
// Fields are length-prefixed ("5:alice") and nil values encode as "_", so
// altering, nulling or relinking any record is detectable by recomputation.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gosuda/assetledger/internal/domain"
)

// ComputeHash returns the hex SHA-256 digest of rec's canonical form.
// rec.CurrentHash is not part of the input.
func ComputeHash(rec *domain.AuditRecord) string {
	h := sha256.New()
	_, _ = h.Write([]byte(canonical(rec)))
	return hex.EncodeToString(h.Sum(nil))
}

func canonical(rec *domain.AuditRecord) string {
	var b strings.Builder

	writeField(&b, rec.ID.String())
	writeField(&b, rec.Timestamp.UTC().Format(time.RFC3339Nano))
	writeField(&b, rec.EntityID)
	writeField(&b, strconv.Itoa(rec.ChainIndex))
	writeField(&b, rec.FieldChanged)
	writeNullable(&b, rec.OldValue)
	writeNullable(&b, rec.NewValue)
	writeField(&b, rec.ChangedByUserID.String())
	writeField(&b, rec.ChangedByEmail)

	var meta strings.Builder
	for _, k := range slices.Sorted(maps.Keys(rec.Metadata)) {
		writeField(&meta, k)
		writeField(&meta, rec.Metadata[k])
	}
	writeField(&b, meta.String())

	writeField(&b, rec.PreviousHash)

	return b.String()
}

func writeField(b *strings.Builder, v string) {
	if b.Len() > 0 {
		b.WriteByte('|')
	}
	b.WriteString(strconv.Itoa(len(v)))
	b.WriteByte(':')
	b.WriteString(v)
}

func writeNullable(b *strings.Builder, v *string) {
	if v != nil {
		writeField(b, *v)
		return
	}
	if b.Len() > 0 {
		b.WriteByte('|')
	}
	b.WriteByte('_')
}
