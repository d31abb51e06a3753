package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

func setupServiceTestDB(t *testing.T) (*gorm.DB, func()) {
	tmpDir, err := os.MkdirTemp("", "services_test")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db.DB, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()

	svc := NewUserService(db, bcrypt.MinCost)
	user, err := svc.Register(RegistrationInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func createTestAdmin(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()

	svc := NewUserService(db, bcrypt.MinCost)
	user := createTestUser(t, db, username)
	require.NoError(t, svc.GrantRole(user.ID, entities.RoleAdmin))

	user, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	return user
}

func createTestBook(t *testing.T, db *gorm.DB, creatorID uint, title, isbn string) *entities.Book {
	t.Helper()

	svc := NewBookCatalogService(db)
	book, err := svc.CreateBook(BookInput{
		Title:           title,
		Author:          "Test Author",
		PublicationDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		ISBN:            isbn,
	}, creatorID)
	require.NoError(t, err)
	return book
}

func createTestList(t *testing.T, db *gorm.DB, userID uint, name string) *entities.ReadingList {
	t.Helper()

	svc := NewReadingListService(db)
	list, err := svc.CreateReadingList(userID, ReadingListInput{Name: name})
	require.NoError(t, err)
	return list
}
