package middleware

import (
	"net/http"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
)

// RequireAdmin lets admins and owners through.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetUserClaims(r.Context())

			if claims == nil || !claims.IsStaff() {
				common.RespondPermissionDenied(w, time.Now(), "admin")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
