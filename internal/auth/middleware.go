package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
)

const principalKey = "auth.principal"

// Middleware authenticates requests and attaches a Principal.
type Middleware struct {
	repo   Repository
	secret string
}

func NewMiddleware(repo Repository, secret string) *Middleware {
	return &Middleware{repo: repo, secret: secret}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func (m *Middleware) authenticate(c *gin.Context) (*Principal, *apperr.Error) {
	token := bearerToken(c)
	if token == "" {
		return nil, apperr.Unauthorized("NO_TOKEN", "Access token required")
	}

	claims, err := ParseToken(m.secret, token)
	if err != nil {
		return nil, apperr.Unauthorized("INVALID_TOKEN", "Invalid or expired token")
	}

	// The user row is re-read so role or wallet changes take effect
	// immediately, not at token expiry.
	user, err := m.repo.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Unauthorized("INVALID_TOKEN", "User no longer exists")
	}

	principal := PrincipalFromUser(user)
	return &principal, nil
}

// RequireAuth rejects requests without a valid token.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, appErr := m.authenticate(c)
		if appErr != nil {
			c.AbortWithStatusJSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}
		c.Set(principalKey, *principal)
		c.Next()
	}
}

// OptionalAuth attaches a Principal when a valid token is present but lets
// anonymous requests through.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, appErr := m.authenticate(c); appErr == nil {
			c.Set(principalKey, *principal)
		}
		c.Next()
	}
}

// FromContext returns the authenticated Principal, if any.
func FromContext(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}
