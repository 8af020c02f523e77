package api

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/realtime"
	"label-cabinet/backstage/internal/services"
)

type Repositories struct {
	Keys *repositories.KeysRepo
}

type Services struct {
	Profiles    *services.ProfileService
	Finance     *services.FinanceService
	Releases    *services.ReleaseService
	Tickets     *services.TicketService
	News        *services.NewsService
	EmailChange *services.EmailChangeService
	Overview    *services.OverviewService
}

// Dependencies is everything the HTTP layer needs, built once in main.
type Dependencies struct {
	DB    *sqlx.DB
	Redis *redis.Client // nil when Redis is disabled

	Verifier *auth.TokenVerifier
	Connect  *common.ConnectTicketSigner
	Hub      *realtime.Hub

	Repo     *Repositories
	Services *Services

	UpSince time.Time
}
