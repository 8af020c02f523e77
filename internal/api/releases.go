package api

import (
	"net/http"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/dtos"
)

func (h *Handlers) ListMyReleases() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		releases, err := h.deps.Services.Releases.ListMyReleases(r.Context(), claims.UserID())
		respond(w, initTime, "Releases fetched", releases, err)
	})
}

// CreateRelease handles POST /api/releases
//
// @Summary      Create a draft release
// @Tags         Releases
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.ReleaseReq  true  "Release"
// @Success      201  {object}  dtos.APIResponse
// @Router       /api/releases [post]
func (h *Handlers) CreateRelease() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.ReleaseReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		release, err := h.deps.Services.Releases.CreateRelease(r.Context(), claims.UserID(), req)
		respond(w, initTime, "Release created", release, err, http.StatusCreated)
	})
}

func (h *Handlers) GetRelease() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		release, err := h.deps.Services.Releases.GetRelease(r.Context(), claims.UserID(), claims.IsStaff(), urlID(r))
		respond(w, initTime, "Release fetched", release, err)
	})
}

func (h *Handlers) UpdateRelease() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.ReleaseReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		release, err := h.deps.Services.Releases.UpdateRelease(r.Context(), claims.UserID(), urlID(r), req)
		respond(w, initTime, "Release updated", release, err)
	})
}

func (h *Handlers) DeleteRelease() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		err := h.deps.Services.Releases.DeleteRelease(r.Context(), claims.UserID(), urlID(r))
		respond(w, initTime, "Release deleted", nil, err)
	})
}

// SubmitRelease handles POST /api/releases/{id}/submit
func (h *Handlers) SubmitRelease() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		release, err := h.deps.Services.Releases.SubmitRelease(r.Context(), claims.UserID(), urlID(r))
		respond(w, initTime, "Release submitted", release, err)
	})
}

// UploadCover handles POST /api/releases/{id}/cover (multipart field "file")
func (h *Handlers) UploadCover() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		name, data, err := readUpload(w, r, constants.BucketReleases)
		if err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		release, err := h.deps.Services.Releases.UploadCover(r.Context(), claims.UserID(), urlID(r), name, data)
		respond(w, initTime, "Cover uploaded", release, err)
	})
}

// ListReleases handles GET /api/admin/releases?status=&page=&per_page=
func (h *Handlers) ListReleases() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		page, perPage := common.Pagination(r)
		releases, err := h.deps.Services.Releases.ListReleases(r.Context(), r.URL.Query().Get("status"), page, perPage)
		respond(w, initTime, "Releases fetched", releases, err)
	})
}

// SetReleaseStatus handles POST /api/admin/releases/{id}/status
func (h *Handlers) SetReleaseStatus() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.ReleaseStatusReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		release, err := h.deps.Services.Releases.SetStatus(r.Context(), claims.UserID(), urlID(r), req)
		respond(w, initTime, "Release status updated", release, err)
	})
}
