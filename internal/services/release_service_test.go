package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/events"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

func newReleaseService(db *gorm.DB) (*ReleaseService, *recordingPublisher) {
	rt := &recordingPublisher{}
	return NewReleaseService(db, newFakeStorage(), events.NewLogPublisher(), rt), rt
}

func completeRelease() dtos.ReleaseReq {
	return dtos.ReleaseReq{
		Title:      "Night Drive",
		ArtistName: "Test Artist",
		Genre:      "synthwave",
		Tracks:     []dtos.TrackReq{{Title: "Intro"}, {Title: "Night Drive", Explicit: true}},
		Countries:  []string{"DE", "FR", "DE"},
		Platforms:  []string{"spotify"},
	}
}

func TestReleaseService_CreateAndSubmit(t *testing.T) {
	db := setupTestDB(t)
	svc, rt := newReleaseService(db)
	ctx := context.Background()

	release, err := svc.CreateRelease(ctx, artistID, completeRelease())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if release.Status != constants.ReleaseDraft {
		t.Errorf("Expected draft, got %s", release.Status)
	}
	if len(release.Countries) != 2 {
		t.Errorf("Expected duplicate countries removed, got %v", release.Countries)
	}

	submitted, err := svc.SubmitRelease(ctx, artistID, release.ID)
	if err != nil {
		t.Fatalf("Expected submit to succeed, got %v", err)
	}
	if submitted.Status != constants.ReleasePending {
		t.Errorf("Expected pending, got %s", submitted.Status)
	}
	if submitted.SubmittedAt == nil {
		t.Error("Expected submitted_at to be set")
	}
	if len(submitted.Tracks) != 2 || submitted.Tracks[1].Title != "Night Drive" {
		t.Errorf("Expected tracks to round-trip, got %+v", submitted.Tracks)
	}

	if rt.count(constants.TableReleases, "UPDATE") != 1 {
		t.Error("Expected a realtime update for the status change")
	}
}

func TestReleaseService_SubmitIncomplete(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newReleaseService(db)
	ctx := context.Background()

	req := completeRelease()
	req.Platforms = nil
	release, _ := svc.CreateRelease(ctx, artistID, req)

	if _, err := svc.SubmitRelease(ctx, artistID, release.ID); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error without platforms, got %v", err)
	}

	req = completeRelease()
	req.Tracks = []dtos.TrackReq{{Title: " "}}
	release, _ = svc.CreateRelease(ctx, artistID, req)
	if _, err := svc.SubmitRelease(ctx, artistID, release.ID); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for untitled track, got %v", err)
	}
}

func TestReleaseService_TransitionTable(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newReleaseService(db)
	ctx := context.Background()

	release, _ := svc.CreateRelease(ctx, artistID, completeRelease())

	// Admin cannot skip review.
	if _, err := svc.SetStatus(ctx, adminID, release.ID, dtos.ReleaseStatusReq{Status: "published"}); !errors.Is(err, constants.ErrInvalidTransition) {
		t.Errorf("Expected draft→published to fail, got %v", err)
	}

	if _, err := svc.SubmitRelease(ctx, artistID, release.ID); err != nil {
		t.Fatalf("Expected submit to succeed, got %v", err)
	}

	// Rejecting needs a reason.
	if _, err := svc.SetStatus(ctx, adminID, release.ID, dtos.ReleaseStatusReq{Status: "rejected"}); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected rejection without reason to fail, got %v", err)
	}

	rejected, err := svc.SetStatus(ctx, adminID, release.ID, dtos.ReleaseStatusReq{Status: "rejected", Reason: strPtr("cover too small")})
	if err != nil {
		t.Fatalf("Expected rejection to succeed, got %v", err)
	}
	if rejected.RejectReason == nil || *rejected.RejectReason != "cover too small" {
		t.Errorf("Expected reject reason, got %v", rejected.RejectReason)
	}

	// Rejected releases are editable and can be resubmitted.
	req := completeRelease()
	req.Title = "Night Drive (Remastered)"
	if _, err := svc.UpdateRelease(ctx, artistID, release.ID, req); err != nil {
		t.Fatalf("Expected update of rejected release to succeed, got %v", err)
	}
	resubmitted, err := svc.SubmitRelease(ctx, artistID, release.ID)
	if err != nil {
		t.Fatalf("Expected resubmit to succeed, got %v", err)
	}
	if resubmitted.RejectReason != nil {
		t.Errorf("Expected reject reason cleared, got %v", *resubmitted.RejectReason)
	}

	distributed, err := svc.SetStatus(ctx, adminID, release.ID, dtos.ReleaseStatusReq{Status: "distributed", UPC: strPtr("123456789012")})
	if err != nil {
		t.Fatalf("Expected distribution to succeed, got %v", err)
	}
	if distributed.UPC == nil || *distributed.UPC != "123456789012" {
		t.Errorf("Expected UPC to be stored, got %v", distributed.UPC)
	}

	// Distributed releases are locked for the artist.
	if _, err := svc.UpdateRelease(ctx, artistID, release.ID, req); !errors.Is(err, constants.ErrInvalidTransition) {
		t.Errorf("Expected update of distributed release to fail, got %v", err)
	}

	if _, err := svc.SetStatus(ctx, adminID, release.ID, dtos.ReleaseStatusReq{Status: "published"}); err != nil {
		t.Errorf("Expected publish to succeed, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, adminID, release.ID, dtos.ReleaseStatusReq{Status: "pending"}); !errors.Is(err, constants.ErrInvalidTransition) {
		t.Errorf("Expected published→pending to fail, got %v", err)
	}
}

func TestReleaseService_DeleteOnlyDrafts(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newReleaseService(db)
	ctx := context.Background()

	draft, _ := svc.CreateRelease(ctx, artistID, completeRelease())
	submitted, _ := svc.CreateRelease(ctx, artistID, completeRelease())
	if _, err := svc.SubmitRelease(ctx, artistID, submitted.ID); err != nil {
		t.Fatalf("Expected submit to succeed, got %v", err)
	}

	if err := svc.DeleteRelease(ctx, artistID, submitted.ID); !errors.Is(err, constants.ErrInvalidTransition) {
		t.Errorf("Expected deleting a pending release to fail, got %v", err)
	}
	if err := svc.DeleteRelease(ctx, adminID, draft.ID); !errors.Is(err, constants.ErrForbidden) {
		t.Errorf("Expected deleting another user's release to fail, got %v", err)
	}
	if err := svc.DeleteRelease(ctx, artistID, draft.ID); err != nil {
		t.Fatalf("Expected draft deletion to succeed, got %v", err)
	}

	var count int64
	db.Model(&gormModels.Release{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 release left, got %d", count)
	}
}

func TestReleaseService_GetRelease_Access(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newReleaseService(db)
	ctx := context.Background()

	release, _ := svc.CreateRelease(ctx, artistID, completeRelease())

	if _, err := svc.GetRelease(ctx, ownerID, false, release.ID); !errors.Is(err, constants.ErrForbidden) {
		t.Errorf("Expected other artist to be refused, got %v", err)
	}
	if _, err := svc.GetRelease(ctx, adminID, true, release.ID); err != nil {
		t.Errorf("Expected staff access, got %v", err)
	}
}

func TestReleaseService_UploadCover(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newReleaseService(db)
	ctx := context.Background()

	release, _ := svc.CreateRelease(ctx, artistID, completeRelease())
	updated, err := svc.UploadCover(ctx, artistID, release.ID, "cover.png", pngBytes)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.CoverURL == nil {
		t.Fatal("Expected cover URL to be set")
	}
}
