package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/models/entities"
)

// RoleResolver returns the role of an authenticated user, provisioning the
// profile on first sight.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID, email string) (constants.Role, error)
}

// KeyLookup checks service API keys.
type KeyLookup interface {
	GetStatus(ctx context.Context, key string) (*entities.ApiKey, error)
}

// AuthMiddleware authenticates a request by bearer access token or X-API-Key
// and stores the principal in the request context.
func AuthMiddleware(verifier *auth.TokenVerifier, roles RoleResolver, keys KeyLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initTime := time.Now()

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get("X-API-Key")

			var claims auth.UserClaims

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				access, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					logging.Debug("Rejected access token", "error", err)
					common.RespondError(w, initTime, nil, "Unauthorized. Invalid access token", http.StatusUnauthorized)
					return
				}

				role, err := roles.ResolveRole(r.Context(), access.Subject, access.Email)
				if err != nil {
					logging.Error("Failed to resolve role", "user_id", access.Subject, "error", err)
					common.RespondError(w, initTime, nil, constants.MsgInternal, http.StatusInternalServerError)
					return
				}

				claims = &auth.JWTClaims{
					UserUUID:   access.Subject,
					EmailValue: access.Email,
					RoleValue:  role,
				}

			case apiKey != "":
				keyRes, err := keys.GetStatus(r.Context(), apiKey)
				if err != nil {
					common.RespondError(w, initTime, nil, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
					return
				}

				if !keyRes.Status {
					common.RespondError(w, initTime, nil, "Unauthorized. Inactive API Key", http.StatusUnauthorized)
					return
				}

				claims = &auth.APIKeyClaims{Label: keyRes.Label}

			default:
				common.RespondError(w, initTime, nil, "Unauthorized. Missing credentials", http.StatusUnauthorized)
				return
			}

			noteUser(r.Context(), claims.UserID())
			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
