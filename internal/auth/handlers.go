package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/config"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

// Authenticator verifies credentials and returns the matching account.
type Authenticator interface {
	Authenticate(identifier, password string) (*entities.User, error)
}

// Controller handles the session endpoints: login, logout and the
// current-user probe.
type Controller struct {
	authenticator  Authenticator
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
}

// NewController creates a new authentication controller.
func NewController(authenticator Authenticator, sessionManager *SessionManager, cfg config.Auth) *Controller {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &Controller{
		authenticator:  authenticator,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
	}
}

// RegisterRoutes registers the session routes on the router.
func (ac *Controller) RegisterRoutes(router gin.IRouter) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/me", ac.Me)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *Controller) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the credentials and opens a session.
func (ac *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Username)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"retry_after": retryAfter.String(),
			})
			return
		}
	}

	user, err := ac.authenticator.Authenticate(req.Username, req.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, req.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Username)
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Logout destroys the session.
func (ac *Controller) Logout(c *gin.Context) {
	_ = ac.sessionManager.DestroySession(c.Request)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me reports the currently authenticated user.
func (ac *Controller) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}
