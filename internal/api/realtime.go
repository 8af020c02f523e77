package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/models/dtos"
	"label-cabinet/backstage/internal/realtime"
)

const connectTicketTTL = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by CORS on the ticket endpoint; the socket itself
	// is authorised by the single-use ticket or access token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// IssueRealtimeTicket handles POST /api/realtime/ticket. Browsers cannot set
// headers on a WebSocket handshake, so they trade their bearer token for a
// short single-use ticket first.
func (h *Handlers) IssueRealtimeTicket() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		ticket, expiresAt, err := h.deps.Connect.Issue(claims.UserID(), claims.Role(), connectTicketTTL)
		respond(w, initTime, "Ticket issued", dtos.RealtimeTicketResponse{Ticket: ticket, ExpiresAt: expiresAt}, err)
	})
}

// Realtime handles GET /api/realtime?ticket=… or ?access_token=…
func (h *Handlers) Realtime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		userID, staff, ok := h.realtimePrincipal(r)
		if !ok {
			common.RespondError(w, initTime, nil, "Unauthorized. Invalid realtime ticket", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			logging.Warn("WebSocket upgrade failed", "user_id", userID, "error", err)
			return
		}

		// The request context derives from the server base context, which is
		// cancelled on shutdown.
		realtime.Serve(r.Context(), conn, h.deps.Hub, userID, staff)
	}
}

func (h *Handlers) realtimePrincipal(r *http.Request) (string, bool, bool) {
	if claims := auth.GetUserClaims(r.Context()); claims != nil {
		return claims.UserID(), claims.IsStaff(), true
	}

	q := r.URL.Query()
	if t := q.Get("ticket"); t != "" {
		ticket, err := h.deps.Connect.Redeem(t)
		if err != nil {
			logging.Debug("Rejected realtime ticket", "error", err)
			return "", false, false
		}
		return ticket.UserID, ticket.Role.IsStaff(), true
	}

	if token := q.Get("access_token"); token != "" {
		access, err := h.deps.Verifier.Verify(token)
		if err != nil {
			return "", false, false
		}
		role, err := h.deps.Services.Profiles.ResolveRole(r.Context(), access.Subject, access.Email)
		if err != nil {
			logging.Error("Failed to resolve role", "user_id", access.Subject, "error", err)
			return "", false, false
		}
		return access.Subject, role.IsStaff(), true
	}

	return "", false, false
}
