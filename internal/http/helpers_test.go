package http

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
	"github.com/ciaranmckenna/book-club/internal/services"
)

func setupHTTPTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir, err := os.MkdirTemp("", "http_test")
	require.NoError(t, err)

	db, err := database.NewDatabase(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}
	return db, cleanup
}

// authAs injects the user into the request context the way the session
// middleware would after a successful login.
func authAs(user *entities.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUser, user)
		c.Set(auth.ContextKeyUserID, user.ID)
		c.Next()
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func mustParseDate(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func registerHTTPTestUser(t *testing.T, db *database.Database, username string) *entities.User {
	t.Helper()

	svc := services.NewUserService(db.DB, bcrypt.MinCost)
	user, err := svc.Register(services.RegistrationInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func addHTTPTestBook(t *testing.T, db *database.Database, creatorID uint, title string) *entities.Book {
	t.Helper()

	svc := services.NewBookCatalogService(db.DB)
	book, err := svc.CreateBook(services.BookInput{
		Title:           title,
		Author:          "Test Author",
		PublicationDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
	}, creatorID)
	require.NoError(t, err)
	return book
}
