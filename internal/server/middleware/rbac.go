package middleware

import "net/http"

// Role constants define the supported user roles. Viewers may read the
// ledger; only admins and members may change assets.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// AllRoles lists every role a token may carry.
var AllRoles = []string{RoleAdmin, RoleMember, RoleViewer} //nolint:gochecknoglobals // role table

// CanWrite reports whether role may mutate assets.
func CanWrite(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// RequireRole returns middleware that checks if the authenticated user has one
// of the allowed roles. It must be chained after Auth.
//
// Returns 401 Unauthorized when no role is found in context and 403
// Forbidden when the role is not allowed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if _, match := allowed[role]; !match {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
