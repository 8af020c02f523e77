package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the subset of an auth provider access token this service reads.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens issued by the auth provider
// against the shared project secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses the token and returns its claims. The subject must be set.
func (v *TokenVerifier) Verify(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims

	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("jwt missing sub")
	}

	return &claims, nil
}

// Sign issues an access token with the same secret. Used by tests and local tooling.
func (v *TokenVerifier) Sign(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
