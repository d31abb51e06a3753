package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/database/books"
	"github.com/ciaranmckenna/book-club/internal/database/categories"
	"github.com/ciaranmckenna/book-club/internal/database/readinglists"
	"github.com/ciaranmckenna/book-club/internal/database/reviews"
	"github.com/ciaranmckenna/book-club/internal/database/users"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

// ISBNs are accepted as digits and hyphens only, one rule for every entry
// point.
var isbnPattern = regexp.MustCompile(`^[\d-]+$`)

const (
	maxTitleLength       = 255
	maxAuthorLength      = 255
	maxDescriptionLength = 1000
)

// BookInput carries the mutable fields of a book for create and full
// update. Callers populate it from the request body; the service owns
// validation.
type BookInput struct {
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublicationDate time.Time `json:"publication_date"`
	Description     string    `json:"description"`
	Publisher       string    `json:"publisher"`
	ISBN            string    `json:"isbn"`
	CoverImageURL   string    `json:"cover_image_url"`
}

// Validate checks the field constraints for a complete book.
func (in BookInput) Validate() error {
	if in.Title == "" || len(in.Title) > maxTitleLength {
		return apperrors.Validation("title is required and must be at most %d characters", maxTitleLength)
	}
	if in.Author == "" || len(in.Author) > maxAuthorLength {
		return apperrors.Validation("author is required and must be at most %d characters", maxAuthorLength)
	}
	if in.PublicationDate.IsZero() {
		return apperrors.Validation("publication date is required")
	}
	if in.PublicationDate.After(time.Now()) {
		return apperrors.Validation("publication date cannot be in the future")
	}
	if in.ISBN != "" && !isbnPattern.MatchString(in.ISBN) {
		return apperrors.Validation("invalid ISBN format: ISBN must contain only digits and hyphens")
	}
	return nil
}

// BookPatch carries the fields of a partial update. Nil means "leave the
// stored value alone".
type BookPatch struct {
	Title           *string    `json:"title"`
	Author          *string    `json:"author"`
	PublicationDate *time.Time `json:"publication_date"`
	Description     *string    `json:"description"`
	Publisher       *string    `json:"publisher"`
	ISBN            *string    `json:"isbn"`
	CoverImageURL   *string    `json:"cover_image_url"`
}

// BookCatalogService manages the book lifecycle, the book↔category
// attachment and the ISBN uniqueness invariant.
type BookCatalogService struct {
	db *gorm.DB
}

// NewBookCatalogService creates a new book catalog service.
func NewBookCatalogService(db *gorm.DB) *BookCatalogService {
	return &BookCatalogService{db: db}
}

// CreateBook persists a new book owned by the creator.
// A non-blank ISBN already registered to another book fails with a
// ValidationError; an unknown creator fails with a NotFoundError.
func (s *BookCatalogService) CreateBook(input BookInput, creatorID uint) (*entities.Book, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *entities.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		userRepo := users.NewRepository(tx)

		if input.ISBN != "" {
			taken, err := bookRepo.ExistsByISBN(input.ISBN)
			if err != nil {
				return fmt.Errorf("failed to check ISBN: %w", err)
			}
			if taken {
				return apperrors.Validation("ISBN is already registered for another book")
			}
		}

		exists, err := userRepo.ExistsByID(creatorID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return apperrors.NotFound("user", creatorID)
		}

		book := &entities.Book{
			Title:           input.Title,
			Author:          input.Author,
			PublicationDate: input.PublicationDate,
			Description:     input.Description,
			Publisher:       input.Publisher,
			ISBN:            input.ISBN,
			CoverImageURL:   input.CoverImageURL,
			CreatedByID:     creatorID,
		}
		if err := bookRepo.Create(book); err != nil {
			// Two creates racing on the same ISBN: the partial unique
			// index wins, and the caller sees the pre-check's kind.
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("ISBN is already registered for another book")
			}
			return fmt.Errorf("failed to create book: %w", err)
		}
		created = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateBook replaces every mutable field of the book.
// The ISBN uniqueness check runs only when the incoming ISBN is non-blank
// and differs from the stored value.
func (s *BookCatalogService) UpdateBook(id uint, input BookInput) (*entities.Book, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *entities.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)

		book, err := bookRepo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "book", id)
		}

		if err := s.checkISBNChange(bookRepo, book, input.ISBN); err != nil {
			return err
		}

		book.Title = input.Title
		book.Author = input.Author
		book.PublicationDate = input.PublicationDate
		book.Description = input.Description
		book.Publisher = input.Publisher
		book.ISBN = input.ISBN
		book.CoverImageURL = input.CoverImageURL

		if err := bookRepo.Save(book); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("ISBN is already registered for another book")
			}
			return fmt.Errorf("failed to update book: %w", err)
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PartialUpdateBook applies only the non-nil fields of the patch.
func (s *BookCatalogService) PartialUpdateBook(id uint, patch BookPatch) (*entities.Book, error) {
	var updated *entities.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)

		book, err := bookRepo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "book", id)
		}

		if patch.ISBN != nil {
			if err := s.checkISBNChange(bookRepo, book, *patch.ISBN); err != nil {
				return err
			}
		}

		if patch.Title != nil {
			if *patch.Title == "" || len(*patch.Title) > maxTitleLength {
				return apperrors.Validation("title must be 1-%d characters", maxTitleLength)
			}
			book.Title = *patch.Title
		}
		if patch.Author != nil {
			if *patch.Author == "" || len(*patch.Author) > maxAuthorLength {
				return apperrors.Validation("author must be 1-%d characters", maxAuthorLength)
			}
			book.Author = *patch.Author
		}
		if patch.PublicationDate != nil {
			if patch.PublicationDate.After(time.Now()) {
				return apperrors.Validation("publication date cannot be in the future")
			}
			book.PublicationDate = *patch.PublicationDate
		}
		if patch.Description != nil {
			book.Description = *patch.Description
		}
		if patch.Publisher != nil {
			book.Publisher = *patch.Publisher
		}
		if patch.ISBN != nil {
			book.ISBN = *patch.ISBN
		}
		if patch.CoverImageURL != nil {
			book.CoverImageURL = *patch.CoverImageURL
		}

		if err := bookRepo.Save(book); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("ISBN is already registered for another book")
			}
			return fmt.Errorf("failed to update book: %w", err)
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// checkISBNChange enforces ISBN uniqueness when the value actually
// changes to a non-blank ISBN.
func (s *BookCatalogService) checkISBNChange(repo *books.Repository, book *entities.Book, isbn string) error {
	if isbn == "" || isbn == book.ISBN {
		return nil
	}
	if !isbnPattern.MatchString(isbn) {
		return apperrors.Validation("invalid ISBN format: ISBN must contain only digits and hyphens")
	}
	taken, err := repo.ExistsByISBN(isbn)
	if err != nil {
		return fmt.Errorf("failed to check ISBN: %w", err)
	}
	if taken {
		return apperrors.Validation("ISBN is already registered for another book")
	}
	return nil
}

// DeleteBook removes a book from the catalog. Deletion is rejected with
// a ConflictError while reviews reference the book; reading-list
// memberships and category attachments are detached in the same
// transaction.
func (s *BookCatalogService) DeleteBook(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		reviewRepo := reviews.NewRepository(tx)
		listRepo := readinglists.NewRepository(tx)

		exists, err := bookRepo.ExistsByID(id)
		if err != nil {
			return fmt.Errorf("failed to check book: %w", err)
		}
		if !exists {
			return apperrors.NotFound("book", id)
		}

		reviewCount, err := reviewRepo.CountByBookID(id)
		if err != nil {
			return fmt.Errorf("failed to count reviews: %w", err)
		}
		if reviewCount > 0 {
			return apperrors.Conflict("book has %d reviews and cannot be deleted", reviewCount)
		}

		if err := listRepo.DeleteMembershipsByBookID(id); err != nil {
			return fmt.Errorf("failed to detach reading list memberships: %w", err)
		}
		if err := tx.Exec("DELETE FROM book_categories WHERE book_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to detach categories: %w", err)
		}
		return bookRepo.Delete(id)
	})
}

// GetBookByID retrieves a book with its categories.
func (s *BookCatalogService) GetBookByID(id uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db).GetByID(id)
	if err != nil {
		return nil, apperrors.FromDB(err, "book", id)
	}
	return book, nil
}

// FindBookByISBN looks up the book registered under an ISBN. A miss is
// an empty result, not an error — the create-and-attach workflow relies
// on that to detect pre-existing books.
func (s *BookCatalogService) FindBookByISBN(isbn string) (*entities.Book, error) {
	book, err := books.NewRepository(s.db).FindByISBN(isbn)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up ISBN: %w", err)
	}
	return book, nil
}

// IsBookOwner reports whether the user created the book.
func (s *BookCatalogService) IsBookOwner(bookID, userID uint) (bool, error) {
	return books.NewRepository(s.db).ExistsByIDAndCreatedBy(bookID, userID)
}

// CanEditBook reports whether the user may mutate the book: the owner
// may, and an admin bypasses ownership.
func (s *BookCatalogService) CanEditBook(user *entities.User, bookID uint) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() {
		return true, nil
	}
	return s.IsBookOwner(bookID, user.ID)
}

// GetAllBooks returns one page of the catalog.
func (s *BookCatalogService) GetAllBooks(p database.Pagination) (database.Page[entities.Book], error) {
	return books.NewRepository(s.db).GetAll(p)
}

// SearchBooks matches the term against title or author.
func (s *BookCatalogService) SearchBooks(term string, p database.Pagination) (database.Page[entities.Book], error) {
	return books.NewRepository(s.db).Search(term, p)
}

// FindBooksByTitle matches the term against the title.
func (s *BookCatalogService) FindBooksByTitle(title string, p database.Pagination) (database.Page[entities.Book], error) {
	return books.NewRepository(s.db).FindByTitle(title, p)
}

// FindBooksByAuthor matches the term against the author.
func (s *BookCatalogService) FindBooksByAuthor(author string, p database.Pagination) (database.Page[entities.Book], error) {
	return books.NewRepository(s.db).FindByAuthor(author, p)
}

// FindBooksByPublicationDateRange returns books published in the range,
// inclusive on both bounds.
func (s *BookCatalogService) FindBooksByPublicationDateRange(start, end time.Time, p database.Pagination) (database.Page[entities.Book], error) {
	if end.Before(start) {
		return database.Page[entities.Book]{}, apperrors.Validation("end date must not precede start date")
	}
	return books.NewRepository(s.db).FindByPublicationDateRange(start, end, p)
}

// FindBooksByCategory returns books attached to the category.
func (s *BookCatalogService) FindBooksByCategory(categoryID uint, p database.Pagination) (database.Page[entities.Book], error) {
	return books.NewRepository(s.db).FindByCategoryID(categoryID, p)
}

// FindBooksByCategoryName returns books attached to the named category.
func (s *BookCatalogService) FindBooksByCategoryName(name string, p database.Pagination) (database.Page[entities.Book], error) {
	return books.NewRepository(s.db).FindByCategoryName(name, p)
}

// FindBooksByReadingListID returns the books in a reading list.
func (s *BookCatalogService) FindBooksByReadingListID(listID uint) ([]entities.Book, error) {
	return books.NewRepository(s.db).FindByReadingListID(listID)
}

// AttachCategory adds a book to a category. Attaching twice is a no-op.
func (s *BookCatalogService) AttachCategory(bookID, categoryID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		categoryRepo := categories.NewRepository(tx)

		book, err := bookRepo.GetByID(bookID)
		if err != nil {
			return apperrors.FromDB(err, "book", bookID)
		}
		category, err := categoryRepo.GetByID(categoryID)
		if err != nil {
			return apperrors.FromDB(err, "category", categoryID)
		}
		return bookRepo.AddCategory(book, category)
	})
}

// DetachCategory removes a book from a category. Detaching a category
// that is not attached is a no-op.
func (s *BookCatalogService) DetachCategory(bookID, categoryID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		categoryRepo := categories.NewRepository(tx)

		book, err := bookRepo.GetByID(bookID)
		if err != nil {
			return apperrors.FromDB(err, "book", bookID)
		}
		category, err := categoryRepo.GetByID(categoryID)
		if err != nil {
			return apperrors.FromDB(err, "category", categoryID)
		}
		return bookRepo.RemoveCategory(book, category)
	})
}
