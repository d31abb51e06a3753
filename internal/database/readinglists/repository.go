// Package readinglists provides database operations for reading lists and
// the reading_list_books membership relation.
//
// The membership edge is a single (reading_list_id, book_id) fact in the
// join table. It is queried from either direction but mutated only here,
// so there is never a second independently-editable copy of the edge.
package readinglists

import (
	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

var sortSafeList = []string{"name", "created_at"}

// Repository handles all reading list database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reading lists repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new reading list.
func (r *Repository) Create(list *entities.ReadingList) error {
	return r.db.Create(list).Error
}

// Save persists all fields of an existing reading list.
func (r *Repository) Save(list *entities.ReadingList) error {
	return r.db.Save(list).Error
}

// GetByID retrieves a reading list without its book set.
func (r *Repository) GetByID(id uint) (*entities.ReadingList, error) {
	var list entities.ReadingList
	err := r.db.Preload("User").First(&list, id).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetWithBooksByID retrieves a reading list with its authoritative book set.
func (r *Repository) GetWithBooksByID(id uint) (*entities.ReadingList, error) {
	var list entities.ReadingList
	err := r.db.Preload("User").
		Preload("Books", func(db *gorm.DB) *gorm.DB {
			return db.Order("books.title ASC")
		}).
		First(&list, id).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// ExistsByID checks whether a reading list exists.
func (r *Repository) ExistsByID(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.ReadingList{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Delete removes a reading list and its membership edges. The books
// themselves are untouched.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM reading_list_books WHERE reading_list_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.ReadingList{}, id).Error
	})
}

// FindByUserID returns one page of a user's reading lists.
func (r *Repository) FindByUserID(userID uint, p database.Pagination) (database.Page[entities.ReadingList], error) {
	query := r.db.Model(&entities.ReadingList{}).Where("user_id = ?", userID)
	return database.FindPage[entities.ReadingList](query, p.WithSortSafeList("name", sortSafeList...))
}

// GetAll returns one page of all reading lists.
func (r *Repository) GetAll(p database.Pagination) (database.Page[entities.ReadingList], error) {
	query := r.db.Model(&entities.ReadingList{})
	return database.FindPage[entities.ReadingList](query, p.WithSortSafeList("name", sortSafeList...))
}

// SearchByName returns lists whose name contains the term (case-insensitive).
func (r *Repository) SearchByName(name string, p database.Pagination) (database.Page[entities.ReadingList], error) {
	pattern := "%" + name + "%"
	query := r.db.Model(&entities.ReadingList{}).Where("LOWER(name) LIKE LOWER(?)", pattern)
	return database.FindPage[entities.ReadingList](query, p.WithSortSafeList("name", sortSafeList...))
}

// SearchByNameAndUserID returns a user's lists whose name contains the term.
func (r *Repository) SearchByNameAndUserID(name string, userID uint, p database.Pagination) (database.Page[entities.ReadingList], error) {
	pattern := "%" + name + "%"
	query := r.db.Model(&entities.ReadingList{}).
		Where("user_id = ? AND LOWER(name) LIKE LOWER(?)", userID, pattern)
	return database.FindPage[entities.ReadingList](query, p.WithSortSafeList("name", sortSafeList...))
}

// IsMember reports whether the (listID, bookID) membership edge exists.
func (r *Repository) IsMember(listID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Table("reading_list_books").
		Where("reading_list_id = ? AND book_id = ?", listID, bookID).
		Count(&count).Error
	return count > 0, err
}

// AddMember creates the membership edge. The association append is a
// no-op when the edge already exists, so callers may rely on it being
// idempotent.
func (r *Repository) AddMember(list *entities.ReadingList, book *entities.Book) error {
	return r.db.Model(list).Association("Books").Append(book)
}

// RemoveMember deletes the membership edge. Removing a non-member is a
// no-op.
func (r *Repository) RemoveMember(list *entities.ReadingList, book *entities.Book) error {
	return r.db.Model(list).Association("Books").Delete(book)
}

// FindByBookID returns every reading list the book is a member of,
// the reverse traversal of the membership relation.
func (r *Repository) FindByBookID(bookID uint) ([]entities.ReadingList, error) {
	var lists []entities.ReadingList
	err := r.db.Preload("User").
		Joins("JOIN reading_list_books rlb ON rlb.reading_list_id = reading_lists.id").
		Where("rlb.book_id = ?", bookID).
		Order("reading_lists.name ASC").
		Find(&lists).Error
	return lists, err
}

// DeleteMembershipsByBookID removes every membership edge that references
// the book. Used when a book is deleted from the catalog.
func (r *Repository) DeleteMembershipsByBookID(bookID uint) error {
	return r.db.Exec("DELETE FROM reading_list_books WHERE book_id = ?", bookID).Error
}
