package api

import (
	"net/http"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/models/dtos"
)

// ListNews handles GET /api/news?category=&page=&per_page=
//
// @Summary      Published news
// @Tags         News
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Router       /api/news [get]
func (h *Handlers) ListNews() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		page, perPage := common.Pagination(r)
		news, err := h.deps.Services.News.ListPublished(r.Context(), r.URL.Query().Get("category"), page, perPage)
		respond(w, initTime, "News fetched", news, err)
	})
}

func (h *Handlers) GetNews() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		item, err := h.deps.Services.News.GetNews(r.Context(), urlID(r), claims.IsStaff())
		respond(w, initTime, "News fetched", item, err)
	})
}

// ListAllNews handles GET /api/admin/news, including scheduled items.
func (h *Handlers) ListAllNews() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		news, err := h.deps.Services.News.ListAllNews(r.Context())
		respond(w, initTime, "News fetched", news, err)
	})
}

func (h *Handlers) CreateNews() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.NewsReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		item, err := h.deps.Services.News.CreateNews(r.Context(), claims.UserID(), req)
		respond(w, initTime, "News created", item, err, http.StatusCreated)
	})
}

func (h *Handlers) UpdateNews() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		var req dtos.NewsReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		item, err := h.deps.Services.News.UpdateNews(r.Context(), urlID(r), req)
		respond(w, initTime, "News updated", item, err)
	})
}

func (h *Handlers) DeleteNews() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		err := h.deps.Services.News.DeleteNews(r.Context(), urlID(r))
		respond(w, initTime, "News deleted", nil, err)
	})
}
