package routes

import (
	"github.com/go-chi/chi/v5"

	"label-cabinet/backstage/internal/api"
	"label-cabinet/backstage/internal/middleware"
)

// RegisterAPIRoutes registers the cabinet and admin API under /api.
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, handlers *api.Handlers) {

	authenticate := middleware.AuthMiddleware(deps.Verifier, deps.Services.Profiles, deps.Repo.Keys)

	r.Route("/api", func(apiRouter chi.Router) {

		// Public routes
		apiRouter.Group(func(public chi.Router) {
			public.Use(middleware.RateLimit(1, 5))
			public.Get("/confirm-email-change", handlers.ConfirmEmailChange())
			public.Post("/confirm-email-change", handlers.ConfirmEmailChange())
		})

		// Authorised by a connect ticket or access token in the query string.
		apiRouter.Get("/realtime", handlers.Realtime())

		apiRouter.Group(func(authed chi.Router) {
			authed.Use(authenticate)

			authed.Post("/realtime/ticket", handlers.IssueRealtimeTicket())

			authed.Route("/profile", func(p chi.Router) {
				p.Get("/", handlers.GetProfile())
				p.Patch("/", handlers.UpdateProfile())
				p.With(middleware.RateLimit(0.2, 3)).Post("/avatar", handlers.UploadAvatar())
				p.With(middleware.RateLimit(0.05, 2)).Post("/email-change", handlers.RequestEmailChange())
			})

			authed.Route("/releases", func(rel chi.Router) {
				rel.Get("/", handlers.ListMyReleases())
				rel.Post("/", handlers.CreateRelease())
				rel.Get("/{id}", handlers.GetRelease())
				rel.Put("/{id}", handlers.UpdateRelease())
				rel.Delete("/{id}", handlers.DeleteRelease())
				rel.Post("/{id}/submit", handlers.SubmitRelease())
				rel.With(middleware.RateLimit(0.2, 3)).Post("/{id}/cover", handlers.UploadCover())
			})

			authed.Route("/finance", func(f chi.Router) {
				f.Get("/balance", handlers.GetBalance())
				f.Get("/payouts", handlers.ListMyPayouts())
				f.Get("/withdrawals", handlers.ListMyWithdrawals())
				f.With(middleware.RateLimit(0.5, 3)).Post("/withdrawals", handlers.RequestWithdrawal())
			})

			authed.Route("/support", func(s chi.Router) {
				s.Get("/tickets", handlers.ListMyTickets())
				s.Post("/tickets", handlers.CreateTicket())
				s.Get("/tickets/{id}", handlers.GetTicket())
				s.Get("/tickets/{id}/messages", handlers.ListTicketMessages())
				s.Post("/tickets/{id}/messages", handlers.PostTicketMessage(false))
				s.Post("/tickets/{id}/typing", handlers.SetTyping())
				s.Post("/tickets/{id}/read", handlers.MarkTicketRead())
				s.Post("/tickets/{id}/close", handlers.CloseTicket())
				s.Post("/messages/{id}/reactions", handlers.React(false))
				s.Delete("/messages/{id}/reactions", handlers.React(true))
				s.With(middleware.RateLimit(0.5, 5)).Post("/upload", handlers.UploadAttachment())
			})

			authed.Get("/news", handlers.ListNews())
			authed.Get("/news/{id}", handlers.GetNews())

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(middleware.RequireAdmin())

				admin.Get("/overview", handlers.Overview())
				admin.Get("/users", handlers.ListUsers())
				admin.Patch("/users/{id}/role", handlers.SetUserRole())

				admin.Get("/payouts", handlers.ListAllPayouts())
				admin.Post("/payouts", handlers.CreatePayout())
				admin.Get("/finance/summary", handlers.FinanceSummary())

				admin.Get("/withdrawals", handlers.ListAllWithdrawals())
				admin.Post("/withdrawals/{id}/approve", handlers.DecideWithdrawal("approve"))
				admin.Post("/withdrawals/{id}/complete", handlers.DecideWithdrawal("complete"))
				admin.Post("/withdrawals/{id}/reject", handlers.DecideWithdrawal("reject"))

				admin.Get("/releases", handlers.ListReleases())
				admin.Post("/releases/{id}/status", handlers.SetReleaseStatus())

				admin.Get("/tickets", handlers.ListAllTickets())
				admin.Post("/tickets/{id}/messages", handlers.PostTicketMessage(true))
				admin.Patch("/tickets/{id}/status", handlers.SetTicketStatus())

				admin.Get("/news", handlers.ListAllNews())
				admin.Post("/news", handlers.CreateNews())
				admin.Put("/news/{id}", handlers.UpdateNews())
				admin.Delete("/news/{id}", handlers.DeleteNews())
			})
		})
	})
}
