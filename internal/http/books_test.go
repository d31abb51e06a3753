package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/services"
)

func newBooksTestRouter(db *database.Database) (*gin.Engine, *BooksController) {
	books := services.NewBookCatalogService(db.DB)
	reviews := services.NewReviewService(db.DB)
	controller := NewBooksController(books, reviews)

	router := gin.New()
	router.GET("/api/books", controller.GetAllBooks)
	router.GET("/api/books/:id", controller.GetBook)
	router.GET("/api/books/isbn/:isbn", controller.GetBookByISBN)
	router.GET("/api/books/:id/rating", controller.GetAverageRating)
	return router, controller
}

func TestBooksController_GetAllBooks(t *testing.T) {
	t.Run("returns empty page when no books", func(t *testing.T) {
		db, cleanup := setupHTTPTestDB(t)
		defer cleanup()

		router, _ := newBooksTestRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(0), response["total"])
	})

	t.Run("search filters by term", func(t *testing.T) {
		db, cleanup := setupHTTPTestDB(t)
		defer cleanup()

		user := registerHTTPTestUser(t, db, "alice")
		addHTTPTestBook(t, db, user.ID, "Go in Practice")
		addHTTPTestBook(t, db, user.ID, "Learning Python")

		router, _ := newBooksTestRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books?search=go", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(1), response["total"])
	})
}

func TestBooksController_GetBook(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	user := registerHTTPTestUser(t, db, "alice")
	book := addHTTPTestBook(t, db, user.ID, "Findable")

	router, _ := newBooksTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/"+itoa(book.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Findable")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/not-a-number", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksController_CreateBook(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	user := registerHTTPTestUser(t, db, "alice")

	books := services.NewBookCatalogService(db.DB)
	reviews := services.NewReviewService(db.DB)
	controller := NewBooksController(books, reviews)

	router := gin.New()
	router.POST("/api/books", authAs(user), controller.CreateBook)

	body := `{"title":"New Book","author":"Someone","publication_date":"2020-01-15T00:00:00Z"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "New Book", created["title"])
	assert.Equal(t, float64(user.ID), created["created_by_id"])

	// A validation failure maps to 400.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/books", strings.NewReader(`{"title":"No Author"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksController_DeleteBookOwnership(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	owner := registerHTTPTestUser(t, db, "owner")
	other := registerHTTPTestUser(t, db, "other")
	book := addHTTPTestBook(t, db, owner.ID, "Guarded")

	books := services.NewBookCatalogService(db.DB)
	reviews := services.NewReviewService(db.DB)
	controller := NewBooksController(books, reviews)

	asOther := gin.New()
	asOther.DELETE("/api/books/:id", authAs(other), controller.DeleteBook)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/books/"+itoa(book.ID), nil)
	asOther.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	// A missing book reports 404, not 403.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/books/999", nil)
	asOther.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	asOwner := gin.New()
	asOwner.DELETE("/api/books/:id", authAs(owner), controller.DeleteBook)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/books/"+itoa(book.ID), nil)
	asOwner.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBooksController_GetAverageRating(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	user := registerHTTPTestUser(t, db, "alice")
	book := addHTTPTestBook(t, db, user.ID, "Rated")

	router, _ := newBooksTestRouter(db)

	// No reviews: the average is null, not zero.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/"+itoa(book.ID)+"/rating", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Nil(t, response["average_rating"])
	assert.Equal(t, float64(0), response["review_count"])

	reviews := services.NewReviewService(db.DB)
	_, err := reviews.CreateReview(book.ID, user.ID, services.ReviewInput{Rating: 4})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/"+itoa(book.ID)+"/rating", nil)
	router.ServeHTTP(w, req)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(4), response["average_rating"])
	assert.Equal(t, float64(1), response["review_count"])
}

func TestBooksController_GetBookByISBN(t *testing.T) {
	db, cleanup := setupHTTPTestDB(t)
	defer cleanup()

	user := registerHTTPTestUser(t, db, "alice")
	books := services.NewBookCatalogService(db.DB)
	_, err := books.CreateBook(services.BookInput{
		Title:           "Tracked",
		Author:          "Author",
		PublicationDate: mustParseDate("2020-01-15"),
		ISBN:            "5555555555",
	}, user.ID)
	require.NoError(t, err)

	router, _ := newBooksTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/isbn/5555555555", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tracked")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/isbn/0000000000", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
