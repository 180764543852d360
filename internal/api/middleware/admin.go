package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"marginApp/internal/ports"
)

// AdminHeader carries the caller identity checked by AdminOnly.
const AdminHeader = "X-Admin-ID"

// AdminSet is an immutable set of admin identities.
type AdminSet struct {
	ids map[int64]struct{}
}

// NewAdminSet copies ids into a new set.
func NewAdminSet(ids []int64) AdminSet {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return AdminSet{ids: m}
}

// Contains reports whether id is an admin.
func (s AdminSet) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// AdminOnly rejects requests whose X-Admin-ID is missing or not in admins with 403.
func AdminOnly(admins AdminSet, logger ports.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(AdminHeader))
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || !admins.Contains(id) {
				logger.Warn(r.Context(), "Admin access denied", map[string]interface{}{
					"path":     r.URL.Path,
					"admin_id": raw,
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"permission denied","code":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
