// Package reviews provides database operations for book reviews,
// including the per-book rating aggregates.
package reviews

import (
	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

var sortSafeList = []string{"rating", "created_at"}

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new review.
func (r *Repository) Create(review *entities.Review) error {
	return r.db.Create(review).Error
}

// Save persists all fields of an existing review.
func (r *Repository) Save(review *entities.Review) error {
	return r.db.Save(review).Error
}

// GetByID retrieves a review with its book and author.
func (r *Repository) GetByID(id uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.Preload("Book").Preload("User").First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete removes a review.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Review{}, id).Error
}

// ExistsByBookIDAndUserID checks whether the user has already reviewed
// the book.
func (r *Repository) ExistsByBookIDAndUserID(bookID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindByBookID returns the book's reviews, newest first.
func (r *Repository) FindByBookID(bookID uint) ([]entities.Review, error) {
	var list []entities.Review
	err := r.db.Preload("User").
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// FindByBookIDPaged returns one page of the book's reviews.
func (r *Repository) FindByBookIDPaged(bookID uint, p database.Pagination) (database.Page[entities.Review], error) {
	query := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID)
	return database.FindPage[entities.Review](query, p.WithSortSafeList("created_at", sortSafeList...))
}

// FindByUserID returns every review the user has written, newest first.
func (r *Repository) FindByUserID(userID uint) ([]entities.Review, error) {
	var list []entities.Review
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// AverageRatingByBookID returns the mean rating for a book. The second
// return value is false when the book has no reviews; it is never
// conflated with an average of zero, which cannot occur since ratings
// start at one.
func (r *Repository) AverageRatingByBookID(bookID uint) (float64, bool, error) {
	var avg *float64
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ?", bookID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return 0, false, err
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

// CountByBookID returns the number of reviews for a book.
func (r *Repository) CountByBookID(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}
