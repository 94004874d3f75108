package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/gosuda/assetledger/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestWrapErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		conflict    bool
		unavailable bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, conflict: true},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, unavailable: true},
		{name: "too many connections", err: &pgconn.PgError{Code: "53300"}, unavailable: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, unavailable: true},
		{name: "network error", err: timeoutErr{}, unavailable: true},
		{name: "deadline", err: context.DeadlineExceeded, unavailable: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := wrapErr("auditRepo.Append", tc.err)

			assert.ErrorIs(t, got, tc.err)
			assert.Equal(t, tc.conflict, errors.Is(got, domain.ErrConflict))
			assert.Equal(t, tc.unavailable, errors.Is(got, domain.ErrStoreUnavailable))
			assert.Contains(t, got.Error(), "auditRepo.Append")
		})
	}
}
