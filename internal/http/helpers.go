package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"` // additional context (missing IDs, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondForbidden sends a 403 Forbidden response.
func respondForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondServiceError translates a service error into the matching
// status code: missing resources map to 404, rejected input to 400,
// state clashes to 409 and permission failures to 403. Anything else
// is an internal error.
func respondServiceError(c *gin.Context, err error, context string) {
	switch {
	case apperrors.IsNotFound(err):
		resp := ErrorResponse{Error: err.Error()}
		if ids := apperrors.MissingIDs(err); len(ids) > 0 {
			resp.Details = gin.H{"missing_ids": ids}
		}
		c.JSON(http.StatusNotFound, resp)
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case apperrors.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case apperrors.IsAuthorization(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads the page, size and sort query parameters.
// Pages are zero-indexed; a sort term prefixed with "-" orders
// descending.
func parsePagination(c *gin.Context) database.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(database.DefaultPageSize)))
	sort, desc := database.ParseSort(c.Query("sort"))
	return database.NewPagination(page, size, sort, desc)
}
