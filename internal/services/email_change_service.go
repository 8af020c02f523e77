package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/mailer"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/providers"
)

const (
	EmailTokenTTL   = 24 * time.Hour
	emailTokenBytes = 32
)

// EmailChangeService moves a member to a new email address after they
// confirm it from their new inbox.
type EmailChangeService struct {
	db        *gorm.DB
	profiles  *repositories.ProfileRepositoryGORM
	tokens    *repositories.EmailTokenRepository
	mailer    mailer.Mailer
	authAdmin providers.AuthAdmin
	publicURL string
}

// NewEmailChangeService builds the service. authAdmin may be nil, in which
// case only the profile row is updated.
func NewEmailChangeService(db *gorm.DB, m mailer.Mailer, authAdmin providers.AuthAdmin, publicURL string) *EmailChangeService {
	return &EmailChangeService{
		db:        db,
		profiles:  repositories.NewProfileRepositoryGORM(db),
		tokens:    repositories.NewEmailTokenRepository(db),
		mailer:    m,
		authAdmin: authAdmin,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func newToken() (string, error) {
	buf := make([]byte, emailTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// normalizeEmail accepts a bare RFC 5322 address and lowercases it.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", constants.Invalid("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// RequestEmailChange issues a fresh confirmation token, replacing earlier
// ones, and mails the confirmation link to the new address.
func (s *EmailChangeService) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	email, err := normalizeEmail(newEmail)
	if err != nil {
		return err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if strings.EqualFold(profile.Email, email) {
		return constants.Invalid("new email matches the current one")
	}

	taken, err := s.profiles.EmailTaken(ctx, email, userID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email already in use: %w", constants.ErrConflict)
	}

	token, err := newToken()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokens := s.tokens.WithTx(tx)
		if err := tokens.InvalidateForUser(ctx, userID, now); err != nil {
			return err
		}
		return tokens.Create(ctx, &gormModels.EmailToken{
			UserID:    userID,
			NewEmail:  email,
			Token:     token,
			ExpiresAt: now.Add(EmailTokenTTL),
		})
	})
	if err != nil {
		return err
	}

	link := s.publicURL + "/api/confirm-email-change?token=" + url.QueryEscape(token)
	body := mailer.EmailChangeHTML(profile.Nickname, link, EmailTokenTTL)
	if err := s.mailer.Send(ctx, email, "Confirm your new email address", body); err != nil {
		return fmt.Errorf("failed to send confirmation mail: %w", err)
	}

	logging.Info("Email change requested", "user_id", userID)
	return nil
}

// ConfirmEmailChange consumes a token and applies the new address to the auth
// provider and the profile. Tokens are single use and expire after a day.
func (s *EmailChangeService) ConfirmEmailChange(ctx context.Context, token string) (*gormModels.Profile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, constants.Invalid("token is required")
	}

	t, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if t.UsedAt != nil {
		return nil, constants.ErrTokenUsed
	}
	now := time.Now().UTC()
	if now.After(t.ExpiresAt) {
		return nil, constants.ErrTokenExpired
	}

	taken, err := s.profiles.EmailTaken(ctx, t.NewEmail, t.UserID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("email already in use: %w", constants.ErrConflict)
	}

	if s.authAdmin != nil {
		if err := s.authAdmin.UpdateUserEmail(ctx, t.UserID, t.NewEmail); err != nil {
			return nil, err
		}
	}

	var profile *gormModels.Profile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.tokens.WithTx(tx).MarkUsed(ctx, t.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return constants.ErrTokenUsed
		}

		profiles := s.profiles.WithTx(tx)
		if err := profiles.Update(ctx, t.UserID, map[string]interface{}{"email": t.NewEmail}); err != nil {
			return err
		}
		profile, err = profiles.GetByID(ctx, t.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.Info("Email changed", "user_id", t.UserID)
	return profile, nil
}
