package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/services"
)

type ReviewsController struct {
	reviews *services.ReviewService
}

func NewReviewsController(reviews *services.ReviewService) *ReviewsController {
	return &ReviewsController{reviews: reviews}
}

// GetBookReviews returns one page of a book's reviews, newest first.
func (controller *ReviewsController) GetBookReviews(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, err := controller.reviews.GetReviewsByBookIDPaged(bookID, parsePagination(c))
	if err != nil {
		respondServiceError(c, err, "list book reviews")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// GetReview returns a single review.
func (controller *ReviewsController) GetReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	review, err := controller.reviews.GetReviewByID(id)
	if err != nil {
		respondServiceError(c, err, "get review")
		return
	}
	c.IndentedJSON(http.StatusOK, review)
}

// GetMyReviews returns the authenticated user's reviews.
func (controller *ReviewsController) GetMyReviews(c *gin.Context) {
	reviews, err := controller.reviews.GetReviewsByUserID(auth.GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "list own reviews")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

// CreateReview records the authenticated user's review of a book.
// A second review of the same book is refused.
func (controller *ReviewsController) CreateReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	review, err := controller.reviews.CreateReview(bookID, auth.GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err, "create review")
		return
	}
	respondCreated(c, review)
}

// UpdateReview changes the authenticated user's own review. The author
// alone may edit it, admins included.
func (controller *ReviewsController) UpdateReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	review, err := controller.reviews.UpdateReview(id, auth.GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err, "update review")
		return
	}
	c.IndentedJSON(http.StatusOK, review)
}

// DeleteReview removes the authenticated user's own review.
func (controller *ReviewsController) DeleteReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.reviews.DeleteReview(id, auth.GetUserID(c)); err != nil {
		respondServiceError(c, err, "delete review")
		return
	}
	respondSuccess(c, "review deleted")
}
