package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/services"
)

type BooksController struct {
	books   *services.BookCatalogService
	reviews *services.ReviewService
}

func NewBooksController(books *services.BookCatalogService, reviews *services.ReviewService) *BooksController {
	return &BooksController{
		books:   books,
		reviews: reviews,
	}
}

// GetAllBooks returns one page of the catalog, or search results when a
// query parameter narrows it down.
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	p := parsePagination(c)

	if term := c.Query("search"); term != "" {
		page, err := controller.books.SearchBooks(term, p)
		if err != nil {
			respondServiceError(c, err, "search books")
			return
		}
		c.IndentedJSON(http.StatusOK, page)
		return
	}
	if title := c.Query("title"); title != "" {
		page, err := controller.books.FindBooksByTitle(title, p)
		if err != nil {
			respondServiceError(c, err, "find books by title")
			return
		}
		c.IndentedJSON(http.StatusOK, page)
		return
	}
	if author := c.Query("author"); author != "" {
		page, err := controller.books.FindBooksByAuthor(author, p)
		if err != nil {
			respondServiceError(c, err, "find books by author")
			return
		}
		c.IndentedJSON(http.StatusOK, page)
		return
	}
	if category := c.Query("category"); category != "" {
		page, err := controller.books.FindBooksByCategoryName(category, p)
		if err != nil {
			respondServiceError(c, err, "find books by category")
			return
		}
		c.IndentedJSON(http.StatusOK, page)
		return
	}

	page, err := controller.books.GetAllBooks(p)
	if err != nil {
		respondServiceError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// GetBook returns a single book with its categories.
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := controller.books.GetBookByID(id)
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// GetBookByISBN looks up a book by its ISBN.
func (controller *BooksController) GetBookByISBN(c *gin.Context) {
	isbn := c.Param("isbn")
	book, err := controller.books.FindBookByISBN(isbn)
	if err != nil {
		respondServiceError(c, err, "find book by ISBN")
		return
	}
	if book == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "book not found with ISBN " + isbn})
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// GetBooksByDateRange returns books published between the from and to
// query parameters (inclusive), in YYYY-MM-DD format.
func (controller *BooksController) GetBooksByDateRange(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		respondBadRequest(c, "from must be a date in YYYY-MM-DD format")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		respondBadRequest(c, "to must be a date in YYYY-MM-DD format")
		return
	}

	page, err := controller.books.FindBooksByPublicationDateRange(from, to, parsePagination(c))
	if err != nil {
		respondServiceError(c, err, "find books by date range")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// CreateBook adds a book owned by the authenticated user.
func (controller *BooksController) CreateBook(c *gin.Context) {
	var input services.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, err := controller.books.CreateBook(input, auth.GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// UpdateBook replaces every field of a book. Only the creator or an
// admin may edit.
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireEditable(c, id) {
		return
	}

	var input services.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, err := controller.books.UpdateBook(id, input)
	if err != nil {
		respondServiceError(c, err, "update book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// PatchBook applies a partial update. Only the creator or an admin may
// edit.
func (controller *BooksController) PatchBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireEditable(c, id) {
		return
	}

	var patch services.BookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, err := controller.books.PartialUpdateBook(id, patch)
	if err != nil {
		respondServiceError(c, err, "patch book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook removes a book. Only the creator or an admin may delete,
// and books with reviews are refused.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireEditable(c, id) {
		return
	}

	if err := controller.books.DeleteBook(id); err != nil {
		respondServiceError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// AttachCategory adds the book to a category.
func (controller *BooksController) AttachCategory(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	categoryID, ok := parseIDParam(c, "categoryId")
	if !ok {
		return
	}
	if err := controller.books.AttachCategory(bookID, categoryID); err != nil {
		respondServiceError(c, err, "attach category")
		return
	}
	respondSuccess(c, "category attached")
}

// DetachCategory removes the book from a category.
func (controller *BooksController) DetachCategory(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	categoryID, ok := parseIDParam(c, "categoryId")
	if !ok {
		return
	}
	if err := controller.books.DetachCategory(bookID, categoryID); err != nil {
		respondServiceError(c, err, "detach category")
		return
	}
	respondSuccess(c, "category detached")
}

// GetAverageRating returns the book's mean rating and review count.
// rating is null when the book has no reviews.
func (controller *BooksController) GetAverageRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	avg, hasReviews, err := controller.reviews.AverageRating(id)
	if err != nil {
		respondServiceError(c, err, "average rating")
		return
	}
	count, err := controller.reviews.CountReviews(id)
	if err != nil {
		respondServiceError(c, err, "count reviews")
		return
	}

	resp := gin.H{"book_id": id, "review_count": count, "average_rating": nil}
	if hasReviews {
		resp["average_rating"] = avg
	}
	c.IndentedJSON(http.StatusOK, resp)
}

// requireEditable enforces the owner-or-admin rule for book mutation.
// A missing book reports 404 before any ownership verdict.
func (controller *BooksController) requireEditable(c *gin.Context, bookID uint) bool {
	if _, err := controller.books.GetBookByID(bookID); err != nil {
		respondServiceError(c, err, "get book")
		return false
	}
	user := auth.CurrentUser(c)
	allowed, err := controller.books.CanEditBook(user, bookID)
	if err != nil {
		respondServiceError(c, err, "check book ownership")
		return false
	}
	if !allowed {
		respondForbidden(c, "only the creator or an admin can modify this book")
		return false
	}
	return true
}
