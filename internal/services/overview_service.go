package services

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/models/dtos"
)

// OverviewService aggregates the admin dashboard counters.
type OverviewService struct {
	profiles *repositories.ProfileRepositoryGORM
	releases *repositories.ReleaseRepository
	tickets  *repositories.TicketRepository
	finance  *repositories.FinanceRepository
}

func NewOverviewService(db *gorm.DB) *OverviewService {
	return &OverviewService{
		profiles: repositories.NewProfileRepositoryGORM(db),
		releases: repositories.NewReleaseRepository(db),
		tickets:  repositories.NewTicketRepository(db),
		finance:  repositories.NewFinanceRepository(db),
	}
}

// Overview runs the counting queries concurrently.
func (s *OverviewService) Overview(ctx context.Context) (*dtos.OverviewResponse, error) {
	var out dtos.OverviewResponse
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.profiles.Count(gctx)
		out.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.releases.CountByStatus(gctx, constants.ReleasePending)
		out.PendingReleases = n
		return err
	})
	g.Go(func() error {
		n, err := s.tickets.CountByStatus(gctx, constants.TicketOpen)
		out.OpenTickets = n
		return err
	})
	g.Go(func() error {
		n, amount, err := s.finance.PendingWithdrawals(gctx)
		out.PendingWithdrawals = n
		out.PendingAmount = amount
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
