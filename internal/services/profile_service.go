package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/realtime"
	"label-cabinet/backstage/internal/storage"
)

const (
	roleCacheTTL     = 60 * time.Second
	memberIDAttempts = 5
)

// ProfileService owns label member profiles and their roles.
type ProfileService struct {
	db       *gorm.DB
	profiles *repositories.ProfileRepositoryGORM
	cache    common.CacheInterface
	storage  storage.ObjectStorage
	realtime realtime.Publisher
}

func NewProfileService(db *gorm.DB, cache common.CacheInterface, store storage.ObjectStorage, rt realtime.Publisher) *ProfileService {
	return &ProfileService{
		db:       db,
		profiles: repositories.NewProfileRepositoryGORM(db),
		cache:    cache,
		storage:  store,
		realtime: rt,
	}
}

func roleKey(userID string) string {
	return common.CacheKey(string(constants.CachePrefixProfileRole), userID)
}

// ResolveRole returns the role of an authenticated user, provisioning the
// profile on first sight. Roles are cached for a minute.
func (s *ProfileService) ResolveRole(ctx context.Context, userID, email string) (constants.Role, error) {
	var role constants.Role
	if s.cache.GetInto(roleKey(userID), &role) && role.Valid() {
		return role, nil
	}

	profile, err := s.EnsureProfile(ctx, userID, email)
	if err != nil {
		return "", err
	}

	s.cache.Set(roleKey(userID), profile.Role, roleCacheTTL)
	return profile.Role, nil
}

// EnsureProfile returns the profile with the given id, creating a basic one
// with a zero balance and a fresh member id when it does not exist yet.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID, email string) (*gormModels.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, constants.ErrNotFound) {
		return nil, err
	}

	memberID, err := s.newMemberID(ctx)
	if err != nil {
		return nil, err
	}

	profile = &gormModels.Profile{
		ID:       userID,
		Email:    strings.ToLower(email),
		Nickname: defaultNickname(email),
		Role:     constants.RoleBasic,
		MemberID: memberID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// A concurrent request may have provisioned the same user.
		if existing, getErr := s.profiles.GetByID(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	logging.Info("Provisioned profile", "user_id", userID, "member_id", memberID)
	return profile, nil
}

func (s *ProfileService) newMemberID(ctx context.Context) (string, error) {
	for i := 0; i < memberIDAttempts; i++ {
		candidate := fmt.Sprintf("LBL-%06d", rand.IntN(1_000_000))
		exists, err := s.profiles.MemberIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to allocate member id after %d attempts: %w", memberIDAttempts, constants.ErrConflict)
}

func defaultNickname(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*gormModels.Profile, error) {
	return s.profiles.GetByID(ctx, userID)
}

// UpdateProfile changes the nickname, which must be 2 to 32 characters after trimming.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req dtos.UpdateProfileReq) (*gormModels.Profile, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 32 {
		return nil, constants.Invalid("nickname must be between 2 and 32 characters")
	}

	if err := s.profiles.Update(ctx, userID, map[string]interface{}{"nickname": nickname}); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, userID)
}

// UploadAvatar stores an image in the avatars bucket and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, fileName string, data []byte) (*gormModels.Profile, error) {
	upload, err := storeUpload(ctx, s.storage, constants.BucketAvatars, userID, fileName, data)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.Update(ctx, userID, map[string]interface{}{"avatar": upload.URL}); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventUpdate, constants.TableProfiles, profile, profile.ID))
	return profile, nil
}

func (s *ProfileService) ListUsers(ctx context.Context, search, role string, page, perPage int) (*dtos.Page[gormModels.Profile], error) {
	r := constants.Role(role)
	if r != "" && !r.Valid() {
		return nil, constants.Invalid("unknown role %q", role)
	}

	profiles, total, err := s.profiles.List(ctx, strings.TrimSpace(search), r, page, perPage)
	if err != nil {
		return nil, err
	}
	return &dtos.Page[gormModels.Profile]{Items: profiles, Total: total, Page: page, PerPage: perPage}, nil
}

// SetRole changes a member's role. Only an owner may grant or revoke staff
// roles; admins may move members between basic and exclusive. The last owner
// cannot be demoted.
func (s *ProfileService) SetRole(ctx context.Context, actorRole constants.Role, targetID, role string) (*gormModels.Profile, error) {
	next := constants.Role(role)
	if !next.Valid() {
		return nil, constants.Invalid("unknown role %q", role)
	}

	var updated *gormModels.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profiles := s.profiles.WithTx(tx)

		target, err := profiles.GetByID(ctx, targetID)
		if err != nil {
			return err
		}

		if actorRole != constants.RoleOwner && (target.Role.IsStaff() || next.IsStaff()) {
			return fmt.Errorf("only an owner can change staff roles: %w", constants.ErrForbidden)
		}

		if target.Role == constants.RoleOwner && next != constants.RoleOwner {
			owners, err := profiles.LockByRole(ctx, constants.RoleOwner)
			if err != nil {
				return err
			}
			if len(owners) <= 1 {
				return fmt.Errorf("cannot demote the last owner: %w", constants.ErrConflict)
			}
		}

		if err := profiles.Update(ctx, targetID, map[string]interface{}{"role": next}); err != nil {
			return err
		}

		updated, err = profiles.GetByID(ctx, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(roleKey(targetID))
	logging.Info("Role changed", "user_id", targetID, "role", next)
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventUpdate, constants.TableProfiles, updated, updated.ID))
	return updated, nil
}
