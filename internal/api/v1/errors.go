package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/assetledger/internal/domain"
)

// storeError maps a service failure onto an HTTP problem. notFound is the
// detail used for domain.ErrNotFound.
func storeError(err error, notFound, failed string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(notFound)
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("concurrent modification, retry the request")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return huma.Error503ServiceUnavailable("record store unavailable")
	default:
		return huma.Error500InternalServerError(failed, err)
	}
}
