package api

import (
	"net/http"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/dtos"
)

// GetProfile handles GET /api/profile
//
// @Summary      Current profile
// @Tags         Profile
// @Produce      json
// @Param        Authorization  header  string  true  "Bearer access token"
// @Success      200  {object}  dtos.APIResponse
// @Failure      401  {object}  dtos.APIResponse
// @Router       /api/profile [get]
func (h *Handlers) GetProfile() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		profile, err := h.deps.Services.Profiles.GetProfile(r.Context(), claims.UserID())
		respond(w, initTime, "Profile fetched", profile, err)
	})
}

// UpdateProfile handles PATCH /api/profile
func (h *Handlers) UpdateProfile() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.UpdateProfileReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		profile, err := h.deps.Services.Profiles.UpdateProfile(r.Context(), claims.UserID(), req)
		respond(w, initTime, "Profile updated", profile, err)
	})
}

// UploadAvatar handles POST /api/profile/avatar (multipart field "file")
func (h *Handlers) UploadAvatar() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		name, data, err := readUpload(w, r, constants.BucketAvatars)
		if err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		profile, err := h.deps.Services.Profiles.UploadAvatar(r.Context(), claims.UserID(), name, data)
		respond(w, initTime, "Avatar updated", profile, err)
	})
}

// RequestEmailChange handles POST /api/profile/email-change
func (h *Handlers) RequestEmailChange() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.EmailChangeReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		err := h.deps.Services.EmailChange.RequestEmailChange(r.Context(), claims.UserID(), req.NewEmail)
		respond(w, initTime, "Confirmation mail sent", nil, err, http.StatusAccepted)
	})
}

// ConfirmEmailChange handles GET|POST /api/confirm-email-change. The token
// comes from the query string (mail link) or a JSON body.
func (h *Handlers) ConfirmEmailChange() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		token := r.URL.Query().Get("token")
		if token == "" && r.Method == http.MethodPost {
			var req dtos.ConfirmEmailChangeReq
			if err := decodeJSON(w, r, &req); err != nil {
				respond(w, initTime, "", nil, err)
				return
			}
			token = req.Token
		}
		if token == "" {
			respond(w, initTime, "", nil, constants.Invalid("token is required"))
			return
		}

		profile, err := h.deps.Services.EmailChange.ConfirmEmailChange(r.Context(), token)
		if err != nil {
			respond(w, initTime, "", nil, err)
			return
		}
		respond(w, initTime, "Email changed", map[string]string{"email": profile.Email}, nil)
	}
}

// ListUsers handles GET /api/admin/users?search=&role=&page=&per_page=
func (h *Handlers) ListUsers() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		page, perPage := common.Pagination(r)
		q := r.URL.Query()

		users, err := h.deps.Services.Profiles.ListUsers(r.Context(), q.Get("search"), q.Get("role"), page, perPage)
		respond(w, initTime, "Users fetched", users, err)
	})
}

// SetUserRole handles PATCH /api/admin/users/{id}/role
func (h *Handlers) SetUserRole() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.SetRoleReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		profile, err := h.deps.Services.Profiles.SetRole(r.Context(), claims.Role(), urlID(r), req.Role)
		respond(w, initTime, "Role updated", profile, err)
	})
}

// Overview handles GET /api/admin/overview
func (h *Handlers) Overview() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		overview, err := h.deps.Services.Overview.Overview(r.Context())
		respond(w, initTime, "Overview fetched", overview, err)
	})
}
