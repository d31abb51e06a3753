package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/services"
)

type ReadingListsController struct {
	lists *services.ReadingListService
	books *services.BookCatalogService
}

func NewReadingListsController(lists *services.ReadingListService, books *services.BookCatalogService) *ReadingListsController {
	return &ReadingListsController{
		lists: lists,
		books: books,
	}
}

// GetAllReadingLists returns one page of lists, optionally filtered by
// name.
func (controller *ReadingListsController) GetAllReadingLists(c *gin.Context) {
	p := parsePagination(c)

	if term := c.Query("name"); term != "" {
		page, err := controller.lists.SearchReadingListsByName(term, p)
		if err != nil {
			respondServiceError(c, err, "search reading lists")
			return
		}
		c.IndentedJSON(http.StatusOK, page)
		return
	}

	page, err := controller.lists.GetAllReadingLists(p)
	if err != nil {
		respondServiceError(c, err, "list reading lists")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// GetMyReadingLists returns the authenticated user's lists.
func (controller *ReadingListsController) GetMyReadingLists(c *gin.Context) {
	userID := auth.GetUserID(c)
	p := parsePagination(c)

	if term := c.Query("name"); term != "" {
		page, err := controller.lists.SearchUserReadingListsByName(userID, term, p)
		if err != nil {
			respondServiceError(c, err, "search own reading lists")
			return
		}
		c.IndentedJSON(http.StatusOK, page)
		return
	}

	page, err := controller.lists.GetReadingListsByUserID(userID, p)
	if err != nil {
		respondServiceError(c, err, "list own reading lists")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// GetReadingList returns a list with its books.
func (controller *ReadingListsController) GetReadingList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := controller.lists.GetReadingListByID(id)
	if err != nil {
		respondServiceError(c, err, "get reading list")
		return
	}
	c.IndentedJSON(http.StatusOK, list)
}

// GetReadingListBooks returns the books of a list, ordered by title.
func (controller *ReadingListsController) GetReadingListBooks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	// The list must exist before its books mean anything.
	if _, err := controller.lists.GetReadingListByID(id); err != nil {
		respondServiceError(c, err, "get reading list")
		return
	}
	books, err := controller.books.FindBooksByReadingListID(id)
	if err != nil {
		respondServiceError(c, err, "list reading list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// CreateReadingList creates a list owned by the authenticated user.
func (controller *ReadingListsController) CreateReadingList(c *gin.Context) {
	var input services.ReadingListInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	list, err := controller.lists.CreateReadingList(auth.GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err, "create reading list")
		return
	}
	respondCreated(c, list)
}

// UpdateReadingList renames a list. Only the owner or an admin may
// modify it.
func (controller *ReadingListsController) UpdateReadingList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireModifiable(c, id) {
		return
	}

	var input services.ReadingListInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	list, err := controller.lists.UpdateReadingList(id, input)
	if err != nil {
		respondServiceError(c, err, "update reading list")
		return
	}
	c.IndentedJSON(http.StatusOK, list)
}

// DeleteReadingList removes a list and its memberships.
func (controller *ReadingListsController) DeleteReadingList(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireModifiable(c, id) {
		return
	}

	if err := controller.lists.DeleteReadingList(id); err != nil {
		respondServiceError(c, err, "delete reading list")
		return
	}
	respondSuccess(c, "reading list deleted")
}

// AddBook adds one book to the list. Adding a member again changes
// nothing and still succeeds.
func (controller *ReadingListsController) AddBook(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	if !controller.requireModifiable(c, listID) {
		return
	}

	list, err := controller.lists.AddBookToReadingList(listID, bookID)
	if err != nil {
		respondServiceError(c, err, "add book to reading list")
		return
	}
	c.IndentedJSON(http.StatusOK, list)
}

// RemoveBook removes one book from the list. Removing a non-member
// changes nothing and still succeeds.
func (controller *ReadingListsController) RemoveBook(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	if !controller.requireModifiable(c, listID) {
		return
	}

	list, err := controller.lists.RemoveBookFromReadingList(listID, bookID)
	if err != nil {
		respondServiceError(c, err, "remove book from reading list")
		return
	}
	c.IndentedJSON(http.StatusOK, list)
}

type addBooksRequest struct {
	BookIDs []uint `json:"book_ids" binding:"required"`
}

// AddBooks adds several books at once. If any ID is unknown the whole
// request fails and the response names every missing ID.
func (controller *ReadingListsController) AddBooks(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireModifiable(c, listID) {
		return
	}

	var req addBooksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_ids is required")
		return
	}
	if len(req.BookIDs) == 0 {
		respondBadRequest(c, "book_ids must not be empty")
		return
	}

	list, err := controller.lists.AddBooksToReadingList(listID, req.BookIDs)
	if err != nil {
		respondServiceError(c, err, "add books to reading list")
		return
	}
	c.IndentedJSON(http.StatusOK, list)
}

// CreateAndAttachBook submits book details against a list: an ISBN
// already in the catalog attaches the existing book instead of
// duplicating it.
func (controller *ReadingListsController) CreateAndAttachBook(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !controller.requireModifiable(c, listID) {
		return
	}

	var input services.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	list, outcome, err := controller.lists.CreateAndAttachBook(listID, input, auth.GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "create and attach book")
		return
	}

	status := http.StatusCreated
	message := "book created and added to reading list"
	switch outcome {
	case services.AttachOutcomeAttachedExisting:
		status = http.StatusOK
		message = "existing book added to reading list"
	case services.AttachOutcomeAlreadyPresent:
		status = http.StatusOK
		message = "book is already in the reading list"
	}
	c.IndentedJSON(status, gin.H{"message": message, "reading_list": list})
}

// ContainsBook reports whether the book is a member of the list.
func (controller *ReadingListsController) ContainsBook(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	member, err := controller.lists.IsBookInReadingList(listID, bookID)
	if err != nil {
		respondServiceError(c, err, "check reading list membership")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"reading_list_id": listID, "book_id": bookID, "contains": member})
}

// GetListsContainingBook returns every list that includes the book.
// Mounted under the books tree, so the book ID arrives as "id".
func (controller *ReadingListsController) GetListsContainingBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lists, err := controller.lists.FindReadingListsByBookID(bookID)
	if err != nil {
		respondServiceError(c, err, "find reading lists by book")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"reading_lists": lists, "count": len(lists)})
}

// requireModifiable enforces the owner-or-admin rule for list mutation.
// A missing list reports 404 before any ownership verdict.
func (controller *ReadingListsController) requireModifiable(c *gin.Context, listID uint) bool {
	user := auth.CurrentUser(c)
	allowed, err := controller.lists.CanModifyList(user, listID)
	if err != nil {
		respondServiceError(c, err, "check reading list ownership")
		return false
	}
	if !allowed {
		respondForbidden(c, "only the owner or an admin can modify this reading list")
		return false
	}
	return true
}
