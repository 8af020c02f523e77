package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/events"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/metrics"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/realtime"
	"label-cabinet/backstage/internal/storage"
)

// ReleaseService runs the release pipeline from draft to published.
type ReleaseService struct {
	db       *gorm.DB
	releases *repositories.ReleaseRepository
	storage  storage.ObjectStorage
	events   events.Publisher
	realtime realtime.Publisher
	metrics  *metrics.MetricsRegistry
}

func NewReleaseService(db *gorm.DB, store storage.ObjectStorage, publisher events.Publisher, rt realtime.Publisher) *ReleaseService {
	return &ReleaseService{
		db:       db,
		releases: repositories.NewReleaseRepository(db),
		storage:  store,
		events:   publisher,
		realtime: rt,
		metrics:  metrics.NewMetricsRegistry(),
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func toTracks(reqs []dtos.TrackReq) []gormModels.Track {
	tracks := make([]gormModels.Track, 0, len(reqs))
	for _, t := range reqs {
		tracks = append(tracks, gormModels.Track{
			Title:       strings.TrimSpace(t.Title),
			ISRC:        strings.TrimSpace(t.ISRC),
			Explicit:    t.Explicit,
			DurationSec: t.DurationSec,
			AudioURL:    strings.TrimSpace(t.AudioURL),
		})
	}
	return tracks
}

func releaseFields(req dtos.ReleaseReq) map[string]interface{} {
	return map[string]interface{}{
		"title":        strings.TrimSpace(req.Title),
		"artist_name":  strings.TrimSpace(req.ArtistName),
		"genre":        strings.TrimSpace(req.Genre),
		"release_date": req.ReleaseDate,
		"tracks":       datatypes.JSONSlice[gormModels.Track](toTracks(req.Tracks)),
		"countries":    datatypes.JSONSlice[string](cleanList(req.Countries)),
		"platforms":    datatypes.JSONSlice[string](cleanList(req.Platforms)),
	}
}

// readyForReview lists what a release needs before it can be submitted.
func readyForReview(r *gormModels.Release) error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return constants.Invalid("title is required")
	case strings.TrimSpace(r.ArtistName) == "":
		return constants.Invalid("artist_name is required")
	case len(r.Tracks) == 0:
		return constants.Invalid("at least one track is required")
	case len(r.Countries) == 0:
		return constants.Invalid("at least one country is required")
	case len(r.Platforms) == 0:
		return constants.Invalid("at least one platform is required")
	}
	for i, t := range r.Tracks {
		if strings.TrimSpace(t.Title) == "" {
			return constants.Invalid("track %d needs a title", i+1)
		}
	}
	return nil
}

// owned loads a release and checks that userID owns it.
func (s *ReleaseService) owned(ctx context.Context, userID, id string) (*gormModels.Release, error) {
	release, err := s.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if release.UserID != userID {
		return nil, fmt.Errorf("release %s: %w", id, constants.ErrForbidden)
	}
	return release, nil
}

func (s *ReleaseService) CreateRelease(ctx context.Context, userID string, req dtos.ReleaseReq) (*gormModels.Release, error) {
	release := &gormModels.Release{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		ArtistName:  strings.TrimSpace(req.ArtistName),
		Genre:       strings.TrimSpace(req.Genre),
		ReleaseDate: req.ReleaseDate,
		Tracks:      datatypes.JSONSlice[gormModels.Track](toTracks(req.Tracks)),
		Countries:   datatypes.JSONSlice[string](cleanList(req.Countries)),
		Platforms:   datatypes.JSONSlice[string](cleanList(req.Platforms)),
		Status:      constants.ReleaseDraft,
	}
	if release.Title == "" {
		return nil, constants.Invalid("title is required")
	}

	if err := s.releases.Create(ctx, release); err != nil {
		return nil, err
	}
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableReleases, release, userID))
	return release, nil
}

// UpdateRelease replaces the metadata of a draft or rejected release.
func (s *ReleaseService) UpdateRelease(ctx context.Context, userID, id string, req dtos.ReleaseReq) (*gormModels.Release, error) {
	release, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !release.Status.Editable() {
		return nil, fmt.Errorf("release is %s and can no longer be edited: %w", release.Status, constants.ErrInvalidTransition)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, constants.Invalid("title is required")
	}

	ok, err := s.releases.UpdateStatusFrom(ctx, id, release.Status, releaseFields(req))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("release %s changed concurrently: %w", id, constants.ErrConflict)
	}

	updated, err := s.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventUpdate, constants.TableReleases, updated, userID).WithOld(release))
	return updated, nil
}

// DeleteRelease removes a release that was never submitted.
func (s *ReleaseService) DeleteRelease(ctx context.Context, userID, id string) error {
	release, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if release.Status != constants.ReleaseDraft {
		return fmt.Errorf("only drafts can be deleted: %w", constants.ErrInvalidTransition)
	}

	if err := s.releases.Delete(ctx, id); err != nil {
		return err
	}
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventDelete, constants.TableReleases, map[string]any{"id": id}, userID).WithOld(release))
	return nil
}

// SubmitRelease sends a complete draft or rejected release to review.
func (s *ReleaseService) SubmitRelease(ctx context.Context, userID, id string) (*gormModels.Release, error) {
	release, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !release.Status.CanTransition(constants.ReleasePending) {
		return nil, fmt.Errorf("release is %s and cannot be submitted: %w", release.Status, constants.ErrInvalidTransition)
	}
	if err := readyForReview(release); err != nil {
		return nil, err
	}

	return s.transition(ctx, release, constants.ReleasePending, map[string]interface{}{
		"submitted_at":  time.Now().UTC(),
		"reject_reason": nil,
	})
}

// UploadCover stores a cover image for an editable release.
func (s *ReleaseService) UploadCover(ctx context.Context, userID, id, fileName string, data []byte) (*gormModels.Release, error) {
	release, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !release.Status.Editable() {
		return nil, fmt.Errorf("release is %s and can no longer be edited: %w", release.Status, constants.ErrInvalidTransition)
	}

	upload, err := storeUpload(ctx, s.storage, constants.BucketReleases, userID, fileName, data)
	if err != nil {
		return nil, err
	}

	ok, err := s.releases.UpdateStatusFrom(ctx, id, release.Status, map[string]interface{}{"cover_url": upload.URL})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("release %s changed concurrently: %w", id, constants.ErrConflict)
	}

	updated, err := s.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventUpdate, constants.TableReleases, updated, userID).WithOld(release))
	return updated, nil
}

func (s *ReleaseService) ListMyReleases(ctx context.Context, userID string) ([]gormModels.Release, error) {
	return s.releases.ListByUser(ctx, userID)
}

// GetRelease returns a release to its owner or to staff.
func (s *ReleaseService) GetRelease(ctx context.Context, userID string, staff bool, id string) (*gormModels.Release, error) {
	if staff {
		return s.releases.GetByID(ctx, id)
	}
	return s.owned(ctx, userID, id)
}

func (s *ReleaseService) ListReleases(ctx context.Context, status string, page, perPage int) (*dtos.Page[gormModels.Release], error) {
	releases, total, err := s.releases.List(ctx, constants.ReleaseStatus(status), page, perPage)
	if err != nil {
		return nil, err
	}
	return &dtos.Page[gormModels.Release]{Items: releases, Total: total, Page: page, PerPage: perPage}, nil
}

// SetStatus applies an admin decision. Rejecting requires a reason.
func (s *ReleaseService) SetStatus(ctx context.Context, actorID, id string, req dtos.ReleaseStatusReq) (*gormModels.Release, error) {
	next := constants.ReleaseStatus(req.Status)

	release, err := s.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !release.Status.CanTransition(next) {
		return nil, fmt.Errorf("release is %s, cannot become %q: %w", release.Status, req.Status, constants.ErrInvalidTransition)
	}

	fields := map[string]interface{}{}
	if next == constants.ReleaseRejected {
		reason := trimmed(req.Reason)
		if reason == "" {
			return nil, constants.Invalid("a reason is required to reject a release")
		}
		fields["reject_reason"] = reason
	}
	if upc := trimmed(req.UPC); upc != "" {
		fields["upc"] = upc
	}

	updated, err := s.transition(ctx, release, next, fields)
	if err != nil {
		return nil, err
	}
	logging.Info("Release status set", "release_id", id, "from", release.Status, "to", next, "actor", actorID)
	return updated, nil
}

// transition moves the release out of its current status and announces the change.
func (s *ReleaseService) transition(ctx context.Context, release *gormModels.Release, next constants.ReleaseStatus, fields map[string]interface{}) (*gormModels.Release, error) {
	fields["status"] = next

	ok, err := s.releases.UpdateStatusFrom(ctx, release.ID, release.Status, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("release %s changed concurrently: %w", release.ID, constants.ErrConflict)
	}

	updated, err := s.releases.GetByID(ctx, release.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.ReleaseStatusChanges.WithLabelValues(string(next)).Inc()
	events.PublishAsync(s.events, events.New(events.ReleaseStatusChanged, updated.ID, map[string]any{
		"release_id": updated.ID,
		"user_id":    updated.UserID,
		"from":       release.Status,
		"to":         next,
		"reason":     updated.RejectReason,
		"upc":        updated.UPC,
	}))
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventUpdate, constants.TableReleases, updated, updated.UserID).WithOld(release))
	return updated, nil
}
