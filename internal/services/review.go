package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/database/books"
	"github.com/ciaranmckenna/book-club/internal/database/reviews"
	"github.com/ciaranmckenna/book-club/internal/database/users"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

const (
	minRating           = 1
	maxRating           = 5
	maxReviewTextLength = 1000
)

// ReviewInput carries the mutable fields of a review.
type ReviewInput struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// Validate checks the rating range and the text length.
func (in ReviewInput) Validate() error {
	if in.Rating < minRating || in.Rating > maxRating {
		return apperrors.Validation("rating must be between %d and %d", minRating, maxRating)
	}
	if len(in.ReviewText) > maxReviewTextLength {
		return apperrors.Validation("review text must be at most %d characters", maxReviewTextLength)
	}
	return nil
}

// ReviewService manages reviews, the one-review-per-user-per-book
// constraint and the aggregate rating.
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a new review service.
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// CreateReview records the user's review of a book. A second review of
// the same book by the same user fails with a ConflictError.
func (s *ReviewService) CreateReview(bookID, userID uint, input ReviewInput) (*entities.Review, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *entities.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		reviewRepo := reviews.NewRepository(tx)
		bookRepo := books.NewRepository(tx)
		userRepo := users.NewRepository(tx)

		exists, err := bookRepo.ExistsByID(bookID)
		if err != nil {
			return fmt.Errorf("failed to check book: %w", err)
		}
		if !exists {
			return apperrors.NotFound("book", bookID)
		}

		exists, err = userRepo.ExistsByID(userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return apperrors.NotFound("user", userID)
		}

		reviewed, err := reviewRepo.ExistsByBookIDAndUserID(bookID, userID)
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if reviewed {
			return apperrors.Conflict("user has already reviewed this book")
		}

		review := &entities.Review{
			Rating:     input.Rating,
			ReviewText: input.ReviewText,
			BookID:     bookID,
			UserID:     userID,
		}
		if err := reviewRepo.Create(review); err != nil {
			// Concurrent duplicate caught by the unique index rather
			// than the pre-check.
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Conflict("user has already reviewed this book")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateReview changes the rating and text of the user's own review.
// Only the author may update a review; not even an admin may edit
// someone else's words.
func (s *ReviewService) UpdateReview(id, userID uint, input ReviewInput) (*entities.Review, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *entities.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		reviewRepo := reviews.NewRepository(tx)

		review, err := reviewRepo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "review", id)
		}
		if review.UserID != userID {
			return apperrors.Authorization("only the author can modify this review")
		}

		review.Rating = input.Rating
		review.ReviewText = input.ReviewText
		if err := reviewRepo.Save(review); err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		updated = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteReview removes the user's own review. Only the author may
// delete it.
func (s *ReviewService) DeleteReview(id, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		reviewRepo := reviews.NewRepository(tx)

		review, err := reviewRepo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "review", id)
		}
		if review.UserID != userID {
			return apperrors.Authorization("only the author can modify this review")
		}
		return reviewRepo.Delete(id)
	})
}

// GetReviewByID retrieves a review with its book and author.
func (s *ReviewService) GetReviewByID(id uint) (*entities.Review, error) {
	review, err := reviews.NewRepository(s.db).GetByID(id)
	if err != nil {
		return nil, apperrors.FromDB(err, "review", id)
	}
	return review, nil
}

// GetReviewsByBookID returns a book's reviews, newest first.
func (s *ReviewService) GetReviewsByBookID(bookID uint) ([]entities.Review, error) {
	if err := s.requireBook(bookID); err != nil {
		return nil, err
	}
	return reviews.NewRepository(s.db).FindByBookID(bookID)
}

// GetReviewsByBookIDPaged returns one page of a book's reviews.
func (s *ReviewService) GetReviewsByBookIDPaged(bookID uint, p database.Pagination) (database.Page[entities.Review], error) {
	if err := s.requireBook(bookID); err != nil {
		return database.Page[entities.Review]{}, err
	}
	return reviews.NewRepository(s.db).FindByBookIDPaged(bookID, p)
}

// GetReviewsByUserID returns every review the user wrote.
func (s *ReviewService) GetReviewsByUserID(userID uint) ([]entities.Review, error) {
	return reviews.NewRepository(s.db).FindByUserID(userID)
}

// AverageRating returns the book's mean rating. The second return is
// false when the book has no reviews, so callers can tell "no ratings"
// apart from a numeric zero.
func (s *ReviewService) AverageRating(bookID uint) (float64, bool, error) {
	if err := s.requireBook(bookID); err != nil {
		return 0, false, err
	}
	return reviews.NewRepository(s.db).AverageRatingByBookID(bookID)
}

// CountReviews returns how many reviews the book has.
func (s *ReviewService) CountReviews(bookID uint) (int64, error) {
	if err := s.requireBook(bookID); err != nil {
		return 0, err
	}
	return reviews.NewRepository(s.db).CountByBookID(bookID)
}

// HasUserReviewedBook reports whether the user already reviewed the
// book.
func (s *ReviewService) HasUserReviewedBook(bookID, userID uint) (bool, error) {
	return reviews.NewRepository(s.db).ExistsByBookIDAndUserID(bookID, userID)
}

func (s *ReviewService) requireBook(bookID uint) error {
	exists, err := books.NewRepository(s.db).ExistsByID(bookID)
	if err != nil {
		return fmt.Errorf("failed to check book: %w", err)
	}
	if !exists {
		return apperrors.NotFound("book", bookID)
	}
	return nil
}
