package auth

import (
	"github.com/google/uuid"

	"label-cabinet/backstage/internal/constants"
)

// UserClaims is the authenticated principal of a request.
type UserClaims interface {
	UserID() string
	Role() constants.Role
	Source() constants.RequestSource
	Email() string
	IsStaff() bool
}

type JWTClaims struct {
	UserUUID   string
	EmailValue string
	RoleValue  constants.Role
}

func (c *JWTClaims) UserID() string                  { return c.UserUUID }
func (c *JWTClaims) Role() constants.Role            { return c.RoleValue }
func (c *JWTClaims) Source() constants.RequestSource { return constants.RequestSourceJWT }
func (c *JWTClaims) Email() string                   { return c.EmailValue }
func (c *JWTClaims) IsStaff() bool                   { return c.RoleValue.IsStaff() }

// APIKeyClaims is a service principal authenticated by X-API-Key. It acts
// with the admin role.
type APIKeyClaims struct {
	Label string
}

func (c *APIKeyClaims) UserID() string                  { return ServicePrincipalID(c.Label) }
func (c *APIKeyClaims) Role() constants.Role            { return constants.RoleAdmin }
func (c *APIKeyClaims) Source() constants.RequestSource { return constants.RequestSourceAPIKey }
func (c *APIKeyClaims) Email() string                   { return "" }
func (c *APIKeyClaims) IsStaff() bool                   { return true }

var servicePrincipalNS = uuid.MustParse("7c1b3f0e-8f2a-4a57-9d1e-3c9a8b5d2e10")

// ServicePrincipalID derives a stable UUID for an API key label so service
// writes fit uuid actor columns.
func ServicePrincipalID(label string) string {
	return uuid.NewSHA1(servicePrincipalNS, []byte("api-key:"+label)).String()
}
