package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/assetledger/internal/domain"
)

const sqlStateUniqueViolation = "23505"

// wrapErr prefixes err with caller and maps driver failures onto domain
// sentinels: unique violations become ErrConflict, connection loss and
// timeouts become ErrStoreUnavailable.
func wrapErr(caller string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", caller, domain.ErrConflict, err)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", caller, domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", caller, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception, 53: insufficient resources,
		// 57P: operator intervention (shutdown, cannot connect now).
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			strings.HasPrefix(pgErr.Code, "57P")
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}
