package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/database/categories"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

const (
	minCategoryNameLength        = 2
	maxCategoryNameLength        = 50
	maxCategoryDescriptionLength = 255
)

// CategoryInput carries the mutable fields of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the field constraints of a category.
func (in CategoryInput) Validate() error {
	if len(in.Name) < minCategoryNameLength || len(in.Name) > maxCategoryNameLength {
		return apperrors.Validation("name must be %d-%d characters", minCategoryNameLength, maxCategoryNameLength)
	}
	if len(in.Description) > maxCategoryDescriptionLength {
		return apperrors.Validation("description must be at most %d characters", maxCategoryDescriptionLength)
	}
	return nil
}

// CategoryWithBookCount pairs a category with the number of books
// attached to it, computed at read time.
type CategoryWithBookCount struct {
	Category  entities.Category `json:"category"`
	BookCount int64             `json:"book_count"`
}

// CategoryService manages the category catalogue and its name
// uniqueness.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CreateCategory adds a category. Category names are unique,
// case-sensitively; a duplicate fails with a ValidationError.
func (s *CategoryService) CreateCategory(input CategoryInput) (*entities.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *entities.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)

		taken, err := repo.ExistsByName(input.Name)
		if err != nil {
			return fmt.Errorf("failed to check category name: %w", err)
		}
		if taken {
			return apperrors.Validation("category name %q is already in use", input.Name)
		}

		category := &entities.Category{
			Name:        input.Name,
			Description: input.Description,
		}
		if err := repo.Create(category); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("category name %q is already in use", input.Name)
			}
			return fmt.Errorf("failed to create category: %w", err)
		}
		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateCategory replaces the name and description. The uniqueness
// check only fires when the name actually changes.
func (s *CategoryService) UpdateCategory(id uint, input CategoryInput) (*entities.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *entities.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)

		category, err := repo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "category", id)
		}

		if input.Name != category.Name {
			taken, err := repo.ExistsByName(input.Name)
			if err != nil {
				return fmt.Errorf("failed to check category name: %w", err)
			}
			if taken {
				return apperrors.Validation("category name %q is already in use", input.Name)
			}
		}

		category.Name = input.Name
		category.Description = input.Description
		if err := repo.Save(category); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("category name %q is already in use", input.Name)
			}
			return fmt.Errorf("failed to update category: %w", err)
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCategory removes a category, detaching its books in the same
// transaction. The books themselves survive.
func (s *CategoryService) DeleteCategory(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)

		exists, err := repo.ExistsByID(id)
		if err != nil {
			return fmt.Errorf("failed to check category: %w", err)
		}
		if !exists {
			return apperrors.NotFound("category", id)
		}
		return repo.Delete(id)
	})
}

// GetCategoryByID retrieves a category.
func (s *CategoryService) GetCategoryByID(id uint) (*entities.Category, error) {
	category, err := categories.NewRepository(s.db).GetByID(id)
	if err != nil {
		return nil, apperrors.FromDB(err, "category", id)
	}
	return category, nil
}

// GetCategoryByName retrieves a category by its exact name.
func (s *CategoryService) GetCategoryByName(name string) (*entities.Category, error) {
	category, err := categories.NewRepository(s.db).GetByName(name)
	if err != nil {
		return nil, apperrors.FromDB(err, "category", 0)
	}
	return category, nil
}

// GetAllCategories returns every category ordered by name.
func (s *CategoryService) GetAllCategories() ([]entities.Category, error) {
	return categories.NewRepository(s.db).GetAll()
}

// GetAllCategoriesPaged returns one page of categories.
func (s *CategoryService) GetAllCategoriesPaged(p database.Pagination) (database.Page[entities.Category], error) {
	return categories.NewRepository(s.db).GetAllPaged(p)
}

// SearchCategoriesByName matches the term against category names,
// case-insensitively.
func (s *CategoryService) SearchCategoriesByName(term string) ([]entities.Category, error) {
	return categories.NewRepository(s.db).SearchByName(term)
}

// BookCount returns how many books are attached to the category.
func (s *CategoryService) BookCount(id uint) (int64, error) {
	repo := categories.NewRepository(s.db)
	exists, err := repo.ExistsByID(id)
	if err != nil {
		return 0, fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return 0, apperrors.NotFound("category", id)
	}
	return repo.BookCount(id)
}

// GetCategoriesOrderedByBookCount returns every category with its book
// count, most-populated first.
func (s *CategoryService) GetCategoriesOrderedByBookCount() ([]CategoryWithBookCount, error) {
	rows, err := categories.NewRepository(s.db).GetAllOrderedByBookCount()
	if err != nil {
		return nil, err
	}
	result := make([]CategoryWithBookCount, 0, len(rows))
	for _, r := range rows {
		result = append(result, CategoryWithBookCount{Category: r.Category, BookCount: r.BookCount})
	}
	return result, nil
}
