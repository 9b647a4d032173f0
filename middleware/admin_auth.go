package middleware

import (
	"context"
	"net/http"

	"github.com/toorbo1/telegram-community1-sub000/utils"
)

// AdminChecker is satisfied by services.Service.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, actorID int64) error
}

// AdminOnly must run after Auth. Services check again on every admin
// operation; this only keeps non-admins away from the admin routes.
func AdminOnly(admins AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := utils.GetUserID(r)
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if err := admins.RequireAdmin(r.Context(), uid); err != nil {
				utils.WriteError(w, http.StatusForbidden, "Forbidden: admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
