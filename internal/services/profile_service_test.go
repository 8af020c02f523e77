package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

func newProfileService(db *gorm.DB) (*ProfileService, *fakeStorage) {
	store := newFakeStorage()
	return NewProfileService(db, common.NewCacheService(60, 120), store, &recordingPublisher{}), store
}

func TestProfileService_EnsureProfile_CreatesBasicProfile(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newProfileService(db)
	ctx := context.Background()

	profile, err := svc.EnsureProfile(ctx, artistID, "New.Artist@Label.test")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile.Role != constants.RoleBasic {
		t.Errorf("Expected role basic, got %s", profile.Role)
	}
	if !profile.Balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", profile.Balance)
	}
	if !strings.HasPrefix(profile.MemberID, "LBL-") || len(profile.MemberID) != 10 {
		t.Errorf("Expected member id like LBL-000000, got %s", profile.MemberID)
	}
	if profile.Email != "new.artist@label.test" {
		t.Errorf("Expected lowercased email, got %s", profile.Email)
	}

	again, err := svc.EnsureProfile(ctx, artistID, "other@label.test")
	if err != nil {
		t.Fatalf("Expected no error on second call, got %v", err)
	}
	if again.MemberID != profile.MemberID {
		t.Errorf("Expected existing profile to be returned, got member id %s", again.MemberID)
	}
}

func TestProfileService_ResolveRole_CachesRole(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, adminID, "admin@label.test", constants.RoleAdmin, 0)
	svc, _ := newProfileService(db)
	ctx := context.Background()

	role, err := svc.ResolveRole(ctx, adminID, "admin@label.test")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if role != constants.RoleAdmin {
		t.Errorf("Expected admin, got %s", role)
	}

	// Cached value survives a direct database change.
	db.Exec("UPDATE profiles SET role = ? WHERE id = ?", constants.RoleBasic, adminID)
	role, _ = svc.ResolveRole(ctx, adminID, "admin@label.test")
	if role != constants.RoleAdmin {
		t.Errorf("Expected cached admin role, got %s", role)
	}
}

func TestProfileService_UpdateProfile_NicknameLength(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, artistID, "artist@label.test", constants.RoleBasic, 0)
	svc, _ := newProfileService(db)
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, artistID, dtos.UpdateProfileReq{Nickname: " a "}); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for short nickname, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, artistID, dtos.UpdateProfileReq{Nickname: strings.Repeat("x", 33)}); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for long nickname, got %v", err)
	}

	profile, err := svc.UpdateProfile(ctx, artistID, dtos.UpdateProfileReq{Nickname: "  DJ Test  "})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile.Nickname != "DJ Test" {
		t.Errorf("Expected trimmed nickname, got %q", profile.Nickname)
	}
}

func TestProfileService_UploadAvatar(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, artistID, "artist@label.test", constants.RoleBasic, 0)
	svc, store := newProfileService(db)
	ctx := context.Background()

	profile, err := svc.UploadAvatar(ctx, artistID, "me.png", pngBytes)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile.Avatar == nil || !strings.HasPrefix(*profile.Avatar, "https://cdn.test/avatars/"+artistID+"/") {
		t.Errorf("Expected avatar URL in avatars bucket, got %v", profile.Avatar)
	}
	if len(store.uploads) != 1 {
		t.Errorf("Expected 1 upload, got %d", len(store.uploads))
	}

	if _, err := svc.UploadAvatar(ctx, artistID, "notes.txt", []byte("plain text")); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for non-image, got %v", err)
	}
}

func TestProfileService_SetRole_Rules(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, artistID, "artist@label.test", constants.RoleBasic, 0)
	seedProfile(t, db, adminID, "admin@label.test", constants.RoleAdmin, 0)
	seedProfile(t, db, ownerID, "owner@label.test", constants.RoleOwner, 0)
	svc, _ := newProfileService(db)
	ctx := context.Background()

	// Admins may switch basic and exclusive.
	p, err := svc.SetRole(ctx, constants.RoleAdmin, artistID, "exclusive")
	if err != nil {
		t.Fatalf("Expected admin to set exclusive, got %v", err)
	}
	if p.Role != constants.RoleExclusive {
		t.Errorf("Expected exclusive, got %s", p.Role)
	}

	// Admins may not grant or revoke staff roles.
	if _, err := svc.SetRole(ctx, constants.RoleAdmin, artistID, "admin"); !errors.Is(err, constants.ErrForbidden) {
		t.Errorf("Expected ErrForbidden granting admin, got %v", err)
	}
	if _, err := svc.SetRole(ctx, constants.RoleAdmin, adminID, "basic"); !errors.Is(err, constants.ErrForbidden) {
		t.Errorf("Expected ErrForbidden revoking admin, got %v", err)
	}

	// Owners may.
	if _, err := svc.SetRole(ctx, constants.RoleOwner, artistID, "admin"); err != nil {
		t.Errorf("Expected owner to grant admin, got %v", err)
	}

	// The last owner stays.
	if _, err := svc.SetRole(ctx, constants.RoleOwner, ownerID, "admin"); !errors.Is(err, constants.ErrConflict) {
		t.Errorf("Expected ErrConflict demoting last owner, got %v", err)
	}

	if _, err := svc.SetRole(ctx, constants.RoleOwner, artistID, "superuser"); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for unknown role, got %v", err)
	}
}

func TestProfileService_SetRole_OwnersDemoteEachOther(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, ownerID, "owner@label.test", constants.RoleOwner, 0)
	seedProfile(t, db, adminID, "second-owner@label.test", constants.RoleOwner, 0)
	svc, _ := newProfileService(db)
	ctx := context.Background()

	if _, err := svc.SetRole(ctx, constants.RoleOwner, adminID, "admin"); err != nil {
		t.Fatalf("Expected demotion with two owners to succeed, got %v", err)
	}
	if _, err := svc.SetRole(ctx, constants.RoleOwner, ownerID, "admin"); !errors.Is(err, constants.ErrConflict) {
		t.Errorf("Expected ErrConflict for the remaining owner, got %v", err)
	}

	var owners int64
	db.Model(&gormModels.Profile{}).Where("role = ?", constants.RoleOwner).Count(&owners)
	if owners != 1 {
		t.Errorf("Expected exactly one owner left, got %d", owners)
	}
}

func TestProfileService_SetRole_InvalidatesCache(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, artistID, "artist@label.test", constants.RoleBasic, 0)
	svc, _ := newProfileService(db)
	ctx := context.Background()

	if _, err := svc.ResolveRole(ctx, artistID, "artist@label.test"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.SetRole(ctx, constants.RoleOwner, artistID, "admin"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	role, _ := svc.ResolveRole(ctx, artistID, "artist@label.test")
	if role != constants.RoleAdmin {
		t.Errorf("Expected fresh role admin, got %s", role)
	}
}

func TestProfileService_ListUsers_Search(t *testing.T) {
	db := setupTestDB(t)
	seedProfile(t, db, artistID, "artist@label.test", constants.RoleBasic, 0)
	seedProfile(t, db, adminID, "admin@label.test", constants.RoleAdmin, 0)
	svc, _ := newProfileService(db)

	page, err := svc.ListUsers(context.Background(), "ARTIST", "", 1, 20)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != artistID {
		t.Errorf("Expected only the artist, got %+v", page)
	}

	page, _ = svc.ListUsers(context.Background(), "", "admin", 1, 20)
	if page.Total != 1 || page.Items[0].ID != adminID {
		t.Errorf("Expected only the admin, got %+v", page)
	}
}
