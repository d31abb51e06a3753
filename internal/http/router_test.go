package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/services"
)

// newTestRouter builds the real route table so tests exercise the same
// route strings the server registers, not ones the test invents.
func newTestRouter(db *database.Database) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Database:      db,
		Books:         services.NewBookCatalogService(db.DB),
		ReadingLists:  services.NewReadingListService(db.DB),
		Reviews:       services.NewReviewService(db.DB),
		Categories:    services.NewCategoryService(db.DB),
		Users:         services.NewUserService(db.DB, bcrypt.MinCost),
		PasswordReset: services.NewPasswordResetService(db.DB, &captureNotifier{}, bcrypt.MinCost),
		Version:       "test",
	})
}

func TestRouter_GetListsContainingBook(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	user := registerHTTPTestUser(t, db, "alice")
	book := addHTTPTestBook(t, db, user.ID, "Tracked")
	list := addHTTPTestList(t, db, user.ID, "Shelf")

	_, err := services.NewReadingListService(db.DB).AddBookToReadingList(list.ID, book.ID)
	require.NoError(t, err)

	router := newTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/"+itoa(book.ID)+"/reading-lists", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["count"])

	lists, ok := response["reading_lists"].([]any)
	require.True(t, ok)
	require.Len(t, lists, 1)
	first, ok := lists[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Shelf", first["name"])

	// An unknown book reports 404 on the same route.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/999/reading-lists", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PublicReads(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	user := registerHTTPTestUser(t, db, "alice")
	book := addHTTPTestBook(t, db, user.ID, "Routed")

	router := newTestRouter(db)

	for _, path := range []string{
		"/ping",
		"/health",
		"/api/books",
		"/api/books/" + itoa(book.ID),
		"/api/books/" + itoa(book.ID) + "/reviews",
		"/api/books/" + itoa(book.ID) + "/rating",
		"/api/categories",
		"/api/reading-lists",
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}
}
