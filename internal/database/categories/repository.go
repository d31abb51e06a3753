// Package categories provides database operations for book categories.
package categories

import (
	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

var sortSafeList = []string{"name", "created_at"}

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new category.
func (r *Repository) Create(category *entities.Category) error {
	return r.db.Create(category).Error
}

// Save persists all fields of an existing category.
func (r *Repository) Save(category *entities.Category) error {
	return r.db.Save(category).Error
}

// GetByID retrieves a category.
func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByName retrieves a category by exact name.
func (r *Repository) GetByName(name string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.Where("name = ?", name).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByID checks whether a category exists.
func (r *Repository) ExistsByID(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsByName checks name uniqueness with an exact, case-sensitive match.
func (r *Repository) ExistsByName(name string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Category{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// Delete removes a category and its book attachments.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Category{}, id).Error
	})
}

// GetAll returns every category ordered by name.
func (r *Repository) GetAll() ([]entities.Category, error) {
	var list []entities.Category
	err := r.db.Order("name ASC").Find(&list).Error
	return list, err
}

// GetAllPaged returns one page of categories.
func (r *Repository) GetAllPaged(p database.Pagination) (database.Page[entities.Category], error) {
	query := r.db.Model(&entities.Category{})
	return database.FindPage[entities.Category](query, p.WithSortSafeList("name", sortSafeList...))
}

// SearchByName returns categories whose name contains the term
// (case-insensitive — uniqueness is exact but search is forgiving).
func (r *Repository) SearchByName(name string) ([]entities.Category, error) {
	var list []entities.Category
	pattern := "%" + name + "%"
	err := r.db.Where("LOWER(name) LIKE LOWER(?)", pattern).Order("name ASC").Find(&list).Error
	return list, err
}

// BookCount returns the number of books attached to the category,
// computed at read time from the join relation.
func (r *Repository) BookCount(categoryID uint) (int64, error) {
	var count int64
	err := r.db.Table("book_categories").Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// CountedCategory is a category together with its book count.
type CountedCategory struct {
	Category  entities.Category
	BookCount int64
}

// GetAllOrderedByBookCount returns every category with its book count,
// the most-populated first.
func (r *Repository) GetAllOrderedByBookCount() ([]CountedCategory, error) {
	var list []entities.Category
	err := r.db.
		Joins("LEFT JOIN book_categories bc ON bc.category_id = categories.id").
		Group("categories.id").
		Order("COUNT(bc.book_id) DESC, categories.name ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	counted := make([]CountedCategory, 0, len(list))
	for _, c := range list {
		n, err := r.BookCount(c.ID)
		if err != nil {
			return nil, err
		}
		counted = append(counted, CountedCategory{Category: c, BookCount: n})
	}
	return counted, nil
}
