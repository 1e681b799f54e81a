package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
)

const userContextKey = "auth.user"

// Middleware authenticates requests and loads the acting user onto the
// gin context. Authorization is role-based per route group.
type Middleware struct {
	tokens *TokenManager
	users  *users.Service
}

func NewMiddleware(tokens *TokenManager, users *users.Service) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Authenticate verifies the bearer token and resolves the user it names.
// The user is loaded fresh on each request so role revocations apply
// before the token expires.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"kind": "UNAUTHENTICATED", "error": "missing bearer token"})
			return
		}
		claims, err := m.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"kind": "UNAUTHENTICATED", "error": "invalid or expired token"})
			return
		}
		user, err := m.users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"kind": "UNAUTHENTICATED", "error": "account no longer exists"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireRole rejects users that do not hold the given role.
func (m *Middleware) RequireRole(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"kind":  string(workflow.KindUnauthorized),
				"error": "requires role " + string(role)})
			return
		}
		c.Next()
	}
}

// RequireCompleteProfile gates workflow actions until the role-specific
// profile fields are filled in.
func (m *Middleware) RequireCompleteProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.ProfileComplete() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"kind":  string(workflow.KindValidation),
				"error": "complete your profile before acting on documents"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Authenticate, or nil.
func CurrentUser(c *gin.Context) *users.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*users.User)
	return user
}
