package api

import (
	"net/http"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/dtos"
	"label-cabinet/backstage/internal/services"
)

func (h *Handlers) ListMyTickets() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		tickets, err := h.deps.Services.Tickets.ListTickets(r.Context(), claims.UserID())
		respond(w, initTime, "Tickets fetched", tickets, err)
	})
}

// CreateTicket handles POST /api/support/tickets
//
// @Summary      Open a support ticket
// @Tags         Support
// @Accept       json
// @Produce      json
// @Param        input  body  dtos.CreateTicketReq  true  "Ticket with first message"
// @Success      201  {object}  dtos.APIResponse
// @Router       /api/support/tickets [post]
func (h *Handlers) CreateTicket() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.CreateTicketReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		ticket, err := h.deps.Services.Tickets.CreateTicket(r.Context(), claims.UserID(), req)
		respond(w, initTime, "Ticket created", ticket, err, http.StatusCreated)
	})
}

func (h *Handlers) GetTicket() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		ticket, err := h.deps.Services.Tickets.GetTicket(r.Context(), actorOf(claims), urlID(r))
		respond(w, initTime, "Ticket fetched", ticket, err)
	})
}

func (h *Handlers) ListTicketMessages() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		messages, err := h.deps.Services.Tickets.ListMessages(r.Context(), actorOf(claims), urlID(r))
		respond(w, initTime, "Messages fetched", messages, err)
	})
}

// PostTicketMessage handles POST /api/support/tickets/{id}/messages and the
// admin reply route. asStaff selects the side the message is written from.
func (h *Handlers) PostTicketMessage(asStaff bool) http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.PostMessageReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		actor := services.Actor{UserID: claims.UserID(), Staff: asStaff && claims.IsStaff()}
		msg, err := h.deps.Services.Tickets.PostMessage(r.Context(), actor, urlID(r), req)
		respond(w, initTime, "Message posted", msg, err, http.StatusCreated)
	})
}

// SetTyping handles POST /api/support/tickets/{id}/typing
func (h *Handlers) SetTyping() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.TypingReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		err := h.deps.Services.Tickets.SetTyping(r.Context(), actorOf(claims), urlID(r), req.Typing)
		respond(w, initTime, "Typing updated", nil, err)
	})
}

func (h *Handlers) MarkTicketRead() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		ticket, err := h.deps.Services.Tickets.MarkRead(r.Context(), actorOf(claims), urlID(r))
		respond(w, initTime, "Ticket marked read", ticket, err)
	})
}

func (h *Handlers) CloseTicket() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		ticket, err := h.deps.Services.Tickets.CloseTicket(r.Context(), services.Actor{UserID: claims.UserID()}, urlID(r))
		respond(w, initTime, "Ticket closed", ticket, err)
	})
}

// React handles POST and DELETE /api/support/messages/{id}/reactions
func (h *Handlers) React(remove bool) http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.ReactionReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		tickets := h.deps.Services.Tickets
		if remove {
			err := tickets.Unreact(r.Context(), actorOf(claims), urlID(r), req.Emoji)
			respond(w, initTime, "Reaction removed", nil, err)
			return
		}

		reaction, err := tickets.React(r.Context(), actorOf(claims), urlID(r), req.Emoji)
		respond(w, initTime, "Reaction added", reaction, err)
	})
}

// UploadAttachment handles POST /api/support/upload (multipart field "file")
func (h *Handlers) UploadAttachment() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		name, data, err := readUpload(w, r, constants.BucketTicketAttachments)
		if err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		upload, err := h.deps.Services.Tickets.UploadAttachment(r.Context(), claims.UserID(), name, data)
		respond(w, initTime, "File uploaded", upload, err, http.StatusCreated)
	})
}

// ListAllTickets handles GET /api/admin/tickets?status=
func (h *Handlers) ListAllTickets() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		tickets, err := h.deps.Services.Tickets.ListAllTickets(r.Context(), r.URL.Query().Get("status"))
		respond(w, initTime, "Tickets fetched", tickets, err)
	})
}

// SetTicketStatus handles PATCH /api/admin/tickets/{id}/status
func (h *Handlers) SetTicketStatus() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.TicketStatusReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		ticket, err := h.deps.Services.Tickets.SetTicketStatus(r.Context(), actorOf(claims), urlID(r), req.Status)
		respond(w, initTime, "Ticket status updated", ticket, err)
	})
}
