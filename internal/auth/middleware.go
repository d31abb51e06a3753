package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
)

// UserLoader resolves a session's user ID to a full account with roles.
type UserLoader interface {
	GetUserByID(id uint) (*entities.User, error)
}

// Middleware loads the authenticated user for each request from the
// session cookie.
type Middleware struct {
	users          UserLoader
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(users UserLoader, sessionManager *SessionManager) *Middleware {
	return &Middleware{users: users, sessionManager: sessionManager}
}

// Handler returns a Gin middleware that resolves the session to a user
// and stores it in the request context. Requests without a session pass
// through unauthenticated; route groups decide whether that is allowed.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := m.sessionManager.GetUserID(c.Request)
		if userID == 0 {
			c.Next()
			return
		}

		user, err := m.users.GetUserByID(userID)
		if err != nil || !user.Enabled {
			// Stale session: the account is gone or disabled.
			_ = m.sessionManager.DestroySession(c.Request)
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Next()
	}
}

// RequireAuth returns a middleware that rejects unauthenticated
// requests.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireRole returns a middleware that rejects users holding none of
// the given roles.
func (m *Middleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		for _, role := range roles {
			if user.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient permissions",
		})
	}
}

// CurrentUser retrieves the authenticated user from the Gin context.
// Returns nil when the request is unauthenticated.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// IsAuthenticated returns true if the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUser(c) != nil
}
