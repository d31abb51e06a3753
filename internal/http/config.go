package http

import (
	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/services"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database

	// Domain services
	Books         *services.BookCatalogService
	ReadingLists  *services.ReadingListService
	Reviews       *services.ReviewService
	Categories    *services.CategoryService
	Users         *services.UserService
	PasswordReset *services.PasswordResetService

	// Authentication
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.Controller
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
