package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("book", 7)))
	assert.True(t, IsValidation(Validation("bad input")))
	assert.True(t, IsConflict(Conflict("already there")))
	assert.True(t, IsAuthorization(Authorization("not yours")))

	assert.False(t, IsNotFound(Validation("bad input")))
	assert.False(t, IsConflict(errors.New("plain")))

	// Predicates see through wrapping.
	wrapped := fmt.Errorf("create book: %w", NotFound("book", 7))
	assert.True(t, IsNotFound(wrapped))
}

func TestMissingIDs(t *testing.T) {
	err := NotFoundMany("book", []uint{998, 999})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, []uint{998, 999}, MissingIDs(err))
	assert.Contains(t, err.Error(), "998")

	// A single-ID miss carries no bulk detail.
	assert.Nil(t, MissingIDs(NotFound("book", 7)))
	assert.Nil(t, MissingIDs(errors.New("plain")))
}

func TestFromDB(t *testing.T) {
	err := FromDB(gorm.ErrRecordNotFound, "review", 3)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "review")

	other := errors.New("disk full")
	err = FromDB(other, "review", 3)
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, other)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: books.isbn")))
	assert.False(t, IsUniqueViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, IsUniqueViolation(nil))
}
