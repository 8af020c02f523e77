package middleware

import (
	"net/http"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
)

func RequireOwner() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetUserClaims(r.Context())

			if claims != nil && claims.Role() == constants.RoleOwner {
				next.ServeHTTP(w, r)
				return
			}
			common.RespondPermissionDenied(w, time.Now(), "owner")
		})
	}
}
