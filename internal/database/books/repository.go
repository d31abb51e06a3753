// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(123)
package books

import (
	"time"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

// Sortable columns accepted by the paged finders.
var sortSafeList = []string{"title", "author", "publication_date", "created_at"}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// Save persists all fields of an existing book.
func (r *Repository) Save(book *entities.Book) error {
	return r.db.Save(book).Error
}

// GetByID retrieves a book with its categories.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Categories").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ExistsByID checks whether a book exists.
func (r *Repository) ExistsByID(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsByISBN checks whether any book carries the given ISBN.
func (r *Repository) ExistsByISBN(isbn string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("isbn = ?", isbn).Count(&count).Error
	return count > 0, err
}

// FindByISBN retrieves the book registered under an ISBN.
// Returns gorm.ErrRecordNotFound when no book carries it.
func (r *Repository) FindByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ExistsByIDAndCreatedBy checks book ownership in a single query.
func (r *Repository) ExistsByIDAndCreatedBy(bookID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).
		Where("id = ? AND created_by_id = ?", bookID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindAllByIDs retrieves every book whose ID appears in ids. Missing IDs
// are simply absent from the result; the caller decides whether that is
// an error.
func (r *Repository) FindAllByIDs(ids []uint) ([]entities.Book, error) {
	var books []entities.Book
	if len(ids) == 0 {
		return books, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&books).Error
	return books, err
}

// Delete removes a book row. Association cleanup is the caller's job.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// GetAll returns one page of the full catalog.
func (r *Repository) GetAll(p database.Pagination) (database.Page[entities.Book], error) {
	query := r.db.Model(&entities.Book{})
	return database.FindPage[entities.Book](query, p.WithSortSafeList("title", sortSafeList...))
}

// Search returns books whose title or author contains the term
// (case-insensitive).
func (r *Repository) Search(term string, p database.Pagination) (database.Page[entities.Book], error) {
	pattern := "%" + term + "%"
	query := r.db.Model(&entities.Book{}).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
	return database.FindPage[entities.Book](query, p.WithSortSafeList("title", sortSafeList...))
}

// FindByTitle returns books whose title contains the term (case-insensitive).
func (r *Repository) FindByTitle(title string, p database.Pagination) (database.Page[entities.Book], error) {
	pattern := "%" + title + "%"
	query := r.db.Model(&entities.Book{}).Where("LOWER(title) LIKE LOWER(?)", pattern)
	return database.FindPage[entities.Book](query, p.WithSortSafeList("title", sortSafeList...))
}

// FindByAuthor returns books whose author contains the term (case-insensitive).
func (r *Repository) FindByAuthor(author string, p database.Pagination) (database.Page[entities.Book], error) {
	pattern := "%" + author + "%"
	query := r.db.Model(&entities.Book{}).Where("LOWER(author) LIKE LOWER(?)", pattern)
	return database.FindPage[entities.Book](query, p.WithSortSafeList("author", sortSafeList...))
}

// FindByPublicationDateRange returns books published within the range,
// inclusive on both bounds.
func (r *Repository) FindByPublicationDateRange(start, end time.Time, p database.Pagination) (database.Page[entities.Book], error) {
	query := r.db.Model(&entities.Book{}).
		Where("publication_date >= ? AND publication_date <= ?", start, end)
	return database.FindPage[entities.Book](query, p.WithSortSafeList("publication_date", sortSafeList...))
}

// FindByCategoryID returns books attached to a category.
func (r *Repository) FindByCategoryID(categoryID uint, p database.Pagination) (database.Page[entities.Book], error) {
	query := r.db.Model(&entities.Book{}).
		Joins("JOIN book_categories bc ON bc.book_id = books.id").
		Where("bc.category_id = ?", categoryID)
	return database.FindPage[entities.Book](query, p.WithSortSafeList("title", sortSafeList...))
}

// FindByCategoryName returns books attached to the named category
// (exact match — category names are unique).
func (r *Repository) FindByCategoryName(name string, p database.Pagination) (database.Page[entities.Book], error) {
	query := r.db.Model(&entities.Book{}).
		Joins("JOIN book_categories bc ON bc.book_id = books.id").
		Joins("JOIN categories c ON c.id = bc.category_id").
		Where("c.name = ?", name)
	return database.FindPage[entities.Book](query, p.WithSortSafeList("title", sortSafeList...))
}

// FindByReadingListID returns every book that is a member of the list,
// via the reading_list_books join relation.
func (r *Repository) FindByReadingListID(listID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Joins("JOIN reading_list_books rlb ON rlb.book_id = books.id").
		Where("rlb.reading_list_id = ?", listID).
		Order("books.title ASC").
		Find(&books).Error
	return books, err
}

// AddCategory attaches a category to a book. Adding an already-attached
// category is a no-op.
func (r *Repository) AddCategory(book *entities.Book, category *entities.Category) error {
	return r.db.Model(book).Association("Categories").Append(category)
}

// RemoveCategory detaches a category from a book.
func (r *Repository) RemoveCategory(book *entities.Book, category *entities.Category) error {
	return r.db.Model(book).Association("Categories").Delete(category)
}
