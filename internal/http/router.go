package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	// Controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Reviews)
	listsController := NewReadingListsController(cfg.ReadingLists, cfg.Books)
	reviewsController := NewReviewsController(cfg.Reviews)
	categoriesController := NewCategoriesController(cfg.Categories, cfg.Books)
	usersController := NewUsersController(cfg.Users)
	resetController := NewPasswordResetController(cfg.PasswordReset)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Session endpoints
	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(api.Group("/auth"))
	}
	if len(cfg.CSRFSecret) > 0 {
		api.GET("/auth/csrf", auth.CSRFTokenHandler)
	}

	// Registration and password reset are open to anonymous callers
	api.POST("/users", usersController.Register)
	api.GET("/users/availability", usersController.CheckAvailability)
	api.POST("/password-reset", resetController.InitiateReset)
	api.GET("/password-reset/validate", resetController.ValidateToken)
	api.POST("/password-reset/confirm", resetController.ResetPassword)

	// Public catalog reads
	api.GET("/books", booksController.GetAllBooks)
	api.GET("/books/published", booksController.GetBooksByDateRange)
	api.GET("/books/isbn/:isbn", booksController.GetBookByISBN)
	api.GET("/books/:id", booksController.GetBook)
	api.GET("/books/:id/reviews", reviewsController.GetBookReviews)
	api.GET("/books/:id/rating", booksController.GetAverageRating)
	api.GET("/books/:id/reading-lists", listsController.GetListsContainingBook)
	api.GET("/categories", categoriesController.GetAllCategories)
	api.GET("/categories/:id", categoriesController.GetCategory)
	api.GET("/categories/:id/books", categoriesController.GetCategoryBooks)
	api.GET("/reading-lists", listsController.GetAllReadingLists)
	api.GET("/reading-lists/:id", listsController.GetReadingList)
	api.GET("/reading-lists/:id/books", listsController.GetReadingListBooks)
	api.GET("/reading-lists/:id/books/:bookId/contains", listsController.ContainsBook)
	api.GET("/reviews/:id", reviewsController.GetReview)

	// Authenticated routes
	authed := api.Group("")
	if cfg.AuthMiddleware != nil {
		authed.Use(cfg.AuthMiddleware.RequireAuth())
	}

	authed.GET("/profile", usersController.GetProfile)
	authed.PUT("/profile", usersController.UpdateProfile)
	authed.POST("/profile/password", usersController.ChangePassword)

	authed.POST("/books", booksController.CreateBook)
	authed.PUT("/books/:id", booksController.UpdateBook)
	authed.PATCH("/books/:id", booksController.PatchBook)
	authed.DELETE("/books/:id", booksController.DeleteBook)
	authed.POST("/books/:id/categories/:categoryId", booksController.AttachCategory)
	authed.DELETE("/books/:id/categories/:categoryId", booksController.DetachCategory)

	authed.GET("/reading-lists/mine", listsController.GetMyReadingLists)
	authed.POST("/reading-lists", listsController.CreateReadingList)
	authed.PUT("/reading-lists/:id", listsController.UpdateReadingList)
	authed.DELETE("/reading-lists/:id", listsController.DeleteReadingList)
	authed.POST("/reading-lists/:id/books/:bookId", listsController.AddBook)
	authed.DELETE("/reading-lists/:id/books/:bookId", listsController.RemoveBook)
	authed.POST("/reading-lists/:id/books", listsController.AddBooks)
	authed.POST("/reading-lists/:id/books/new", listsController.CreateAndAttachBook)

	authed.POST("/books/:id/reviews", reviewsController.CreateReview)
	authed.PUT("/reviews/:id", reviewsController.UpdateReview)
	authed.DELETE("/reviews/:id", reviewsController.DeleteReview)
	authed.GET("/reviews/mine", reviewsController.GetMyReviews)

	// Admin routes
	admin := api.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireRole(entities.RoleAdmin))
	}

	admin.POST("/categories", categoriesController.CreateCategory)
	admin.PUT("/categories/:id", categoriesController.UpdateCategory)
	admin.DELETE("/categories/:id", categoriesController.DeleteCategory)
	admin.GET("/users", usersController.GetAllUsers)
	admin.GET("/users/:id", usersController.GetUser)
	admin.DELETE("/users/:id", usersController.DeleteUser)
	admin.POST("/users/:id/roles", usersController.GrantRole)
	admin.DELETE("/users/:id/roles", usersController.RevokeRole)
	admin.PUT("/users/:id/enabled", usersController.SetEnabled)

	return router
}
