package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/dtos"
)

func TestOverviewService_Overview(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, artistID, "artist@label.test", constants.RoleBasic, 100)
	seedProfile(t, db, adminID, "admin@label.test", constants.RoleAdmin, 0)
	ctx := context.Background()

	finance := newFinanceService(db, &recordingPublisher{})
	if _, _, err := finance.RequestWithdrawal(ctx, artistID, cardRequest("30"), ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	tickets, _ := newTicketService(db)
	openTicket(t, tickets)
	releases, _ := newReleaseService(db)
	r, _ := releases.CreateRelease(ctx, artistID, completeRelease())
	if _, err := releases.SubmitRelease(ctx, artistID, r.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := NewOverviewService(db).Overview(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := dtos.OverviewResponse{Users: 2, PendingReleases: 1, OpenTickets: 1, PendingWithdrawals: 1}
	if got.Users != want.Users || got.PendingReleases != want.PendingReleases ||
		got.OpenTickets != want.OpenTickets || got.PendingWithdrawals != want.PendingWithdrawals {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if !got.PendingAmount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected pending amount 30, got %s", got.PendingAmount)
	}
}
