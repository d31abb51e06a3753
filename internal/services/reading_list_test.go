package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
)

func TestCreateReadingList(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)

	list, err := svc.CreateReadingList(user.ID, ReadingListInput{
		Name:        "Summer Reading",
		Description: "Beach books",
	})
	require.NoError(t, err)
	assert.NotZero(t, list.ID)
	assert.Equal(t, user.ID, list.UserID)

	_, err = svc.CreateReadingList(user.ID, ReadingListInput{Name: ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateReadingList(999, ReadingListInput{Name: "Orphan"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddBookToReadingListIdempotent(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	list := createTestList(t, db, user.ID, "Sci-Fi")

	first, err := svc.AddBookToReadingList(list.ID, book.ID)
	require.NoError(t, err)
	assert.Len(t, first.Books, 1)

	// Adding the same book again succeeds and leaves one membership.
	second, err := svc.AddBookToReadingList(list.ID, book.ID)
	require.NoError(t, err)
	assert.Len(t, second.Books, 1)
}

func TestRemoveBookFromReadingListIdempotent(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	list := createTestList(t, db, user.ID, "Sci-Fi")

	_, err := svc.AddBookToReadingList(list.ID, book.ID)
	require.NoError(t, err)

	after, err := svc.RemoveBookFromReadingList(list.ID, book.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Books)

	// Removing a book that is not a member is not an error.
	after, err = svc.RemoveBookFromReadingList(list.ID, book.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Books)
}

func TestAddBookToReadingListUnknownEntities(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	list := createTestList(t, db, user.ID, "Sci-Fi")

	_, err := svc.AddBookToReadingList(999, book.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.AddBookToReadingList(list.ID, 999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddBooksToReadingListReportsAllMissing(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	list := createTestList(t, db, user.ID, "Sci-Fi")

	_, err := svc.AddBooksToReadingList(list.ID, []uint{book.ID, 998, 999})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, []uint{998, 999}, apperrors.MissingIDs(err))

	// Nothing was added: all-or-nothing.
	after, err := svc.GetReadingListByID(list.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Books)
}

func TestAddBooksToReadingList(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	first := createTestBook(t, db, user.ID, "First", "")
	second := createTestBook(t, db, user.ID, "Second", "")
	list := createTestList(t, db, user.ID, "Shelf")

	after, err := svc.AddBooksToReadingList(list.ID, []uint{first.ID, second.ID})
	require.NoError(t, err)
	assert.Len(t, after.Books, 2)

	// A repeat with overlap only adds the new members.
	after, err = svc.AddBooksToReadingList(list.ID, []uint{first.ID})
	require.NoError(t, err)
	assert.Len(t, after.Books, 2)
}

func TestCreateAndAttachBookOutcomes(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	books := NewBookCatalogService(db)
	list := createTestList(t, db, user.ID, "Primary")
	other := createTestList(t, db, user.ID, "Secondary")

	input := BookInput{
		Title:           "Neuromancer",
		Author:          "William Gibson",
		PublicationDate: time.Date(1984, 7, 1, 0, 0, 0, 0, time.UTC),
		ISBN:            "978-0441569595",
	}

	// A new ISBN creates the book and attaches it.
	after, outcome, err := svc.CreateAndAttachBook(list.ID, input, user.ID)
	require.NoError(t, err)
	assert.Equal(t, AttachOutcomeCreated, outcome)
	require.Len(t, after.Books, 1)
	bookID := after.Books[0].ID

	// The same ISBN against another list attaches the existing book.
	after, outcome, err = svc.CreateAndAttachBook(other.ID, input, user.ID)
	require.NoError(t, err)
	assert.Equal(t, AttachOutcomeAttachedExisting, outcome)
	require.Len(t, after.Books, 1)
	assert.Equal(t, bookID, after.Books[0].ID)

	// The same ISBN against the same list is a no-op.
	after, outcome, err = svc.CreateAndAttachBook(other.ID, input, user.ID)
	require.NoError(t, err)
	assert.Equal(t, AttachOutcomeAlreadyPresent, outcome)
	assert.Len(t, after.Books, 1)

	// Only one book row exists for the ISBN throughout.
	book, err := books.FindBookByISBN("978-0441569595")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, bookID, book.ID)
}

func TestCreateAndAttachBookWithoutISBN(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	list := createTestList(t, db, user.ID, "Shelf")

	input := BookInput{
		Title:           "Untracked",
		Author:          "Anonymous",
		PublicationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	// Without an ISBN there is no dedup: each call creates a book.
	_, outcome, err := svc.CreateAndAttachBook(list.ID, input, user.ID)
	require.NoError(t, err)
	assert.Equal(t, AttachOutcomeCreated, outcome)

	after, outcome, err := svc.CreateAndAttachBook(list.ID, input, user.ID)
	require.NoError(t, err)
	assert.Equal(t, AttachOutcomeCreated, outcome)
	assert.Len(t, after.Books, 2)
}

func TestIsBookInReadingList(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	list := createTestList(t, db, user.ID, "Sci-Fi")

	member, err := svc.IsBookInReadingList(list.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, member)

	_, err = svc.AddBookToReadingList(list.ID, book.ID)
	require.NoError(t, err)

	member, err = svc.IsBookInReadingList(list.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, member)

	_, err = svc.IsBookInReadingList(999, book.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindReadingListsByBookID(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	first := createTestList(t, db, user.ID, "First")
	second := createTestList(t, db, user.ID, "Second")

	_, err := svc.AddBookToReadingList(first.ID, book.ID)
	require.NoError(t, err)
	_, err = svc.AddBookToReadingList(second.ID, book.ID)
	require.NoError(t, err)

	lists, err := svc.FindReadingListsByBookID(book.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 2)
}

func TestDeleteReadingListKeepsBooks(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	svc := NewReadingListService(db)
	books := NewBookCatalogService(db)
	book := createTestBook(t, db, user.ID, "Dune", "")
	list := createTestList(t, db, user.ID, "Sci-Fi")

	_, err := svc.AddBookToReadingList(list.ID, book.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReadingList(list.ID))

	_, err = svc.GetReadingListByID(list.ID)
	assert.True(t, apperrors.IsNotFound(err))

	// Deleting the list never deletes its books.
	_, err = books.GetBookByID(book.ID)
	require.NoError(t, err)
}

func TestSearchUserReadingListsByName(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	svc := NewReadingListService(db)

	createTestList(t, db, alice.ID, "Summer Reading")
	createTestList(t, db, alice.ID, "Winter Reading")
	createTestList(t, db, bob.ID, "Summer Projects")

	page, err := svc.SearchUserReadingListsByName(alice.ID, "summer", database.NewPagination(0, 10, "", false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Summer Reading", page.Items[0].Name)
}

func TestCanModifyList(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	admin := createTestAdmin(t, db, "admin")

	svc := NewReadingListService(db)
	list := createTestList(t, db, owner.ID, "Guarded")

	can, err := svc.CanModifyList(owner, list.ID)
	require.NoError(t, err)
	assert.True(t, can)

	can, err = svc.CanModifyList(other, list.ID)
	require.NoError(t, err)
	assert.False(t, can)

	can, err = svc.CanModifyList(admin, list.ID)
	require.NoError(t, err)
	assert.True(t, can)
}
