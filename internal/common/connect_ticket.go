package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"label-cabinet/backstage/internal/constants"
)

// ConnectTicket is a short-lived, single-use credential for opening the
// realtime WebSocket from a browser, which cannot set an Authorization header.
type ConnectTicket struct {
	UserID    string
	Role      constants.Role
	TokenID   string
	ExpiresAt time.Time
}

type connectClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ConnectTicketSigner issues and redeems connect tickets.
type ConnectTicketSigner struct {
	secretKey []byte
	cache     CacheInterface
}

func NewConnectTicketSigner(secretKey []byte, cache CacheInterface) *ConnectTicketSigner {
	return &ConnectTicketSigner{
		secretKey: secretKey,
		cache:     cache,
	}
}

// Issue signs a ticket for the user valid for ttl.
func (s *ConnectTicketSigner) Issue(userID string, role constants.Role, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := connectClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{"realtime"},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Redeem validates the ticket and burns its id so it cannot be reused.
func (s *ConnectTicketSigner) Redeem(tokenString string) (*ConnectTicket, error) {
	var claims connectClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithAudience("realtime"), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, errors.New("invalid token")
	}

	expiresAt := claims.ExpiresAt.Time
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil, constants.ErrTokenExpired
	}

	if !s.cache.SetNX(string(constants.CachePrefixRealtimeUsed)+claims.ID, true, ttl) {
		return nil, constants.ErrTokenUsed
	}

	return &ConnectTicket{
		UserID:    claims.UserID,
		Role:      constants.Role(claims.Role),
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}
