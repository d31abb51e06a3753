package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/database/books"
	"github.com/ciaranmckenna/book-club/internal/database/readinglists"
	"github.com/ciaranmckenna/book-club/internal/database/users"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

const (
	maxListNameLength        = 100
	maxListDescriptionLength = 500
)

// AttachOutcome describes what the create-and-attach workflow did with
// the submitted book.
type AttachOutcome int

const (
	// AttachOutcomeCreated means a new book was created and attached.
	AttachOutcomeCreated AttachOutcome = iota
	// AttachOutcomeAttachedExisting means a book with the submitted ISBN
	// already existed and was attached instead of duplicated.
	AttachOutcomeAttachedExisting
	// AttachOutcomeAlreadyPresent means the ISBN's book was already a
	// member of the list; nothing changed.
	AttachOutcomeAlreadyPresent
)

// ReadingListInput carries the mutable fields of a reading list.
type ReadingListInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the field constraints of a reading list.
func (in ReadingListInput) Validate() error {
	if in.Name == "" || len(in.Name) > maxListNameLength {
		return apperrors.Validation("name is required and must be at most %d characters", maxListNameLength)
	}
	if len(in.Description) > maxListDescriptionLength {
		return apperrors.Validation("description must be at most %d characters", maxListDescriptionLength)
	}
	return nil
}

// ReadingListService manages reading lists and their book memberships,
// including the composite create-and-attach workflow.
type ReadingListService struct {
	db *gorm.DB
}

// NewReadingListService creates a new reading list service.
func NewReadingListService(db *gorm.DB) *ReadingListService {
	return &ReadingListService{db: db}
}

// CreateReadingList creates an empty reading list owned by the user.
func (s *ReadingListService) CreateReadingList(userID uint, input ReadingListInput) (*entities.ReadingList, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *entities.ReadingList
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		listRepo := readinglists.NewRepository(tx)

		exists, err := userRepo.ExistsByID(userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return apperrors.NotFound("user", userID)
		}

		list := &entities.ReadingList{
			Name:        input.Name,
			Description: input.Description,
			UserID:      userID,
		}
		if err := listRepo.Create(list); err != nil {
			return fmt.Errorf("failed to create reading list: %w", err)
		}
		created = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetReadingListByID retrieves a reading list together with its books.
func (s *ReadingListService) GetReadingListByID(id uint) (*entities.ReadingList, error) {
	list, err := readinglists.NewRepository(s.db).GetWithBooksByID(id)
	if err != nil {
		return nil, apperrors.FromDB(err, "reading list", id)
	}
	return list, nil
}

// UpdateReadingList replaces the name and description of a list.
func (s *ReadingListService) UpdateReadingList(id uint, input ReadingListInput) (*entities.ReadingList, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *entities.ReadingList
	err := s.db.Transaction(func(tx *gorm.DB) error {
		listRepo := readinglists.NewRepository(tx)

		list, err := listRepo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "reading list", id)
		}
		list.Name = input.Name
		list.Description = input.Description
		if err := listRepo.Save(list); err != nil {
			return fmt.Errorf("failed to update reading list: %w", err)
		}
		updated = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteReadingList removes the list and its membership rows. The books
// themselves are untouched.
func (s *ReadingListService) DeleteReadingList(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		listRepo := readinglists.NewRepository(tx)

		exists, err := listRepo.ExistsByID(id)
		if err != nil {
			return fmt.Errorf("failed to check reading list: %w", err)
		}
		if !exists {
			return apperrors.NotFound("reading list", id)
		}
		return listRepo.Delete(id)
	})
}

// AddBookToReadingList adds the book to the list. Adding a book that is
// already a member leaves the list unchanged. Returns the list with its
// current books.
func (s *ReadingListService) AddBookToReadingList(listID, bookID uint) (*entities.ReadingList, error) {
	var result *entities.ReadingList
	err := s.db.Transaction(func(tx *gorm.DB) error {
		listRepo := readinglists.NewRepository(tx)
		bookRepo := books.NewRepository(tx)

		list, err := listRepo.GetByID(listID)
		if err != nil {
			return apperrors.FromDB(err, "reading list", listID)
		}
		book, err := bookRepo.GetByID(bookID)
		if err != nil {
			return apperrors.FromDB(err, "book", bookID)
		}

		member, err := listRepo.IsMember(listID, bookID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			if err := listRepo.AddMember(list, book); err != nil {
				return fmt.Errorf("failed to add book to reading list: %w", err)
			}
		}

		result, err = listRepo.GetWithBooksByID(listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveBookFromReadingList removes the book from the list. Removing a
// book that is not a member leaves the list unchanged. Returns the list
// with its current books.
func (s *ReadingListService) RemoveBookFromReadingList(listID, bookID uint) (*entities.ReadingList, error) {
	var result *entities.ReadingList
	err := s.db.Transaction(func(tx *gorm.DB) error {
		listRepo := readinglists.NewRepository(tx)
		bookRepo := books.NewRepository(tx)

		list, err := listRepo.GetByID(listID)
		if err != nil {
			return apperrors.FromDB(err, "reading list", listID)
		}
		book, err := bookRepo.GetByID(bookID)
		if err != nil {
			return apperrors.FromDB(err, "book", bookID)
		}

		if err := listRepo.RemoveMember(list, book); err != nil {
			return fmt.Errorf("failed to remove book from reading list: %w", err)
		}

		result, err = listRepo.GetWithBooksByID(listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddBooksToReadingList adds several books at once. When any of the IDs
// does not resolve to a book, the whole operation fails with a
// NotFoundError naming every missing ID and no membership is changed.
func (s *ReadingListService) AddBooksToReadingList(listID uint, bookIDs []uint) (*entities.ReadingList, error) {
	var result *entities.ReadingList
	err := s.db.Transaction(func(tx *gorm.DB) error {
		listRepo := readinglists.NewRepository(tx)
		bookRepo := books.NewRepository(tx)

		list, err := listRepo.GetByID(listID)
		if err != nil {
			return apperrors.FromDB(err, "reading list", listID)
		}

		found, err := bookRepo.FindAllByIDs(bookIDs)
		if err != nil {
			return fmt.Errorf("failed to load books: %w", err)
		}
		foundIDs := make(map[uint]struct{}, len(found))
		for _, b := range found {
			foundIDs[b.ID] = struct{}{}
		}
		var missing []uint
		for _, id := range bookIDs {
			if _, ok := foundIDs[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return apperrors.NotFoundMany("book", missing)
		}

		for i := range found {
			member, err := listRepo.IsMember(listID, found[i].ID)
			if err != nil {
				return fmt.Errorf("failed to check membership: %w", err)
			}
			if member {
				continue
			}
			if err := listRepo.AddMember(list, &found[i]); err != nil {
				return fmt.Errorf("failed to add book %d: %w", found[i].ID, err)
			}
		}

		result, err = listRepo.GetWithBooksByID(listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateAndAttachBook runs the composite workflow: when the submitted
// ISBN already names a catalog book, that book is attached (or reported
// as already present) instead of creating a duplicate; otherwise a new
// book owned by the user is created and attached. Everything happens in
// one transaction.
func (s *ReadingListService) CreateAndAttachBook(listID uint, input BookInput, userID uint) (*entities.ReadingList, AttachOutcome, error) {
	var (
		result  *entities.ReadingList
		outcome AttachOutcome
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		listRepo := readinglists.NewRepository(tx)
		bookRepo := books.NewRepository(tx)
		userRepo := users.NewRepository(tx)

		list, err := listRepo.GetByID(listID)
		if err != nil {
			return apperrors.FromDB(err, "reading list", listID)
		}

		if input.ISBN != "" {
			if !isbnPattern.MatchString(input.ISBN) {
				return apperrors.Validation("invalid ISBN format: ISBN must contain only digits and hyphens")
			}
			existing, err := bookRepo.FindByISBN(input.ISBN)
			if err == nil {
				member, err := listRepo.IsMember(listID, existing.ID)
				if err != nil {
					return fmt.Errorf("failed to check membership: %w", err)
				}
				if member {
					outcome = AttachOutcomeAlreadyPresent
				} else {
					if err := listRepo.AddMember(list, existing); err != nil {
						return fmt.Errorf("failed to attach book: %w", err)
					}
					outcome = AttachOutcomeAttachedExisting
				}
				result, err = listRepo.GetWithBooksByID(listID)
				return err
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up ISBN: %w", err)
			}
		}

		if err := input.Validate(); err != nil {
			return err
		}

		exists, err := userRepo.ExistsByID(userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return apperrors.NotFound("user", userID)
		}

		book := &entities.Book{
			Title:           input.Title,
			Author:          input.Author,
			PublicationDate: input.PublicationDate,
			Description:     input.Description,
			Publisher:       input.Publisher,
			ISBN:            input.ISBN,
			CoverImageURL:   input.CoverImageURL,
			CreatedByID:     userID,
		}
		if err := bookRepo.Create(book); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("ISBN is already registered for another book")
			}
			return fmt.Errorf("failed to create book: %w", err)
		}
		if err := listRepo.AddMember(list, book); err != nil {
			return fmt.Errorf("failed to attach book: %w", err)
		}
		outcome = AttachOutcomeCreated

		result, err = listRepo.GetWithBooksByID(listID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return result, outcome, nil
}

// IsBookInReadingList reports whether the book is a member of the list.
// The list itself must exist.
func (s *ReadingListService) IsBookInReadingList(listID, bookID uint) (bool, error) {
	listRepo := readinglists.NewRepository(s.db)
	exists, err := listRepo.ExistsByID(listID)
	if err != nil {
		return false, fmt.Errorf("failed to check reading list: %w", err)
	}
	if !exists {
		return false, apperrors.NotFound("reading list", listID)
	}
	return listRepo.IsMember(listID, bookID)
}

// FindReadingListsByBookID returns every list that contains the book.
func (s *ReadingListService) FindReadingListsByBookID(bookID uint) ([]entities.ReadingList, error) {
	bookRepo := books.NewRepository(s.db)
	exists, err := bookRepo.ExistsByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check book: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("book", bookID)
	}
	return readinglists.NewRepository(s.db).FindByBookID(bookID)
}

// GetReadingListsByUserID returns one page of the user's lists.
func (s *ReadingListService) GetReadingListsByUserID(userID uint, p database.Pagination) (database.Page[entities.ReadingList], error) {
	return readinglists.NewRepository(s.db).FindByUserID(userID, p)
}

// GetAllReadingLists returns one page of every list.
func (s *ReadingListService) GetAllReadingLists(p database.Pagination) (database.Page[entities.ReadingList], error) {
	return readinglists.NewRepository(s.db).GetAll(p)
}

// SearchReadingListsByName matches the term against list names.
func (s *ReadingListService) SearchReadingListsByName(term string, p database.Pagination) (database.Page[entities.ReadingList], error) {
	return readinglists.NewRepository(s.db).SearchByName(term, p)
}

// SearchUserReadingListsByName matches the term against one user's list
// names.
func (s *ReadingListService) SearchUserReadingListsByName(userID uint, term string, p database.Pagination) (database.Page[entities.ReadingList], error) {
	return readinglists.NewRepository(s.db).SearchByNameAndUserID(term, userID, p)
}

// IsListOwner reports whether the user owns the list.
func (s *ReadingListService) IsListOwner(listID, userID uint) (bool, error) {
	list, err := readinglists.NewRepository(s.db).GetByID(listID)
	if err != nil {
		return false, apperrors.FromDB(err, "reading list", listID)
	}
	return list.UserID == userID, nil
}

// CanModifyList reports whether the user may mutate the list: the owner
// may, and an admin bypasses ownership.
func (s *ReadingListService) CanModifyList(user *entities.User, listID uint) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() {
		return true, nil
	}
	return s.IsListOwner(listID, user.ID)
}
