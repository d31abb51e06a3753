package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
)

func TestCreateReview(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	book := createTestBook(t, db, user.ID, "Reviewed", "")
	svc := NewReviewService(db)

	review, err := svc.CreateReview(book.ID, user.ID, ReviewInput{
		Rating:     4,
		ReviewText: "Solid read.",
	})
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, 4, review.Rating)
}

func TestCreateReviewValidation(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	book := createTestBook(t, db, user.ID, "Reviewed", "")
	svc := NewReviewService(db)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(book.ID, user.ID, ReviewInput{Rating: rating})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	}

	_, err := svc.CreateReview(999, user.ID, ReviewInput{Rating: 3})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateReviewOnePerUserPerBook(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	book := createTestBook(t, db, alice.ID, "Popular", "")
	svc := NewReviewService(db)

	_, err := svc.CreateReview(book.ID, alice.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	_, err = svc.CreateReview(book.ID, alice.ID, ReviewInput{Rating: 2})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// A different user may still review the same book.
	_, err = svc.CreateReview(book.ID, bob.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)
}

func TestUpdateReviewOwnershipStrict(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	admin := createTestAdmin(t, db, "admin")
	book := createTestBook(t, db, alice.ID, "Contested", "")
	svc := NewReviewService(db)

	review, err := svc.CreateReview(book.ID, alice.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)

	updated, err := svc.UpdateReview(review.ID, alice.ID, ReviewInput{Rating: 5, ReviewText: "Changed my mind."})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	// Even an admin cannot edit another user's review.
	_, err = svc.UpdateReview(review.ID, admin.ID, ReviewInput{Rating: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestDeleteReviewOwnershipStrict(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	admin := createTestAdmin(t, db, "admin")
	book := createTestBook(t, db, alice.ID, "Contested", "")
	svc := NewReviewService(db)

	review, err := svc.CreateReview(book.ID, alice.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)

	err = svc.DeleteReview(review.ID, admin.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	require.NoError(t, svc.DeleteReview(review.ID, alice.ID))

	_, err = svc.GetReviewByID(review.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAverageRating(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	book := createTestBook(t, db, alice.ID, "Rated", "")
	svc := NewReviewService(db)

	// No reviews yet: the average is absent, not zero.
	avg, ok, err := svc.AverageRating(book.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, avg)

	_, err = svc.CreateReview(book.ID, alice.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)
	_, err = svc.CreateReview(book.ID, bob.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	avg, ok, err = svc.AverageRating(book.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 4.5, avg, 0.001)

	_, _, err = svc.AverageRating(999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetReviewsByBookIDPaged(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	book := createTestBook(t, db, alice.ID, "Paged", "")
	svc := NewReviewService(db)

	for _, u := range []uint{alice.ID, bob.ID, carol.ID} {
		_, err := svc.CreateReview(book.ID, u, ReviewInput{Rating: 4})
		require.NoError(t, err)
	}

	page, err := svc.GetReviewsByBookIDPaged(book.ID, database.NewPagination(0, 2, "", false))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)

	_, err = svc.GetReviewsByBookIDPaged(999, database.NewPagination(0, 2, "", false))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHasUserReviewedBook(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	book := createTestBook(t, db, user.ID, "Checked", "")
	svc := NewReviewService(db)

	reviewed, err := svc.HasUserReviewedBook(book.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, reviewed)

	_, err = svc.CreateReview(book.ID, user.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)

	reviewed, err = svc.HasUserReviewedBook(book.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, reviewed)
}
