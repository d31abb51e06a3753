package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranmckenna/book-club/internal/entities"
)

func TestNewPaginationBounds(t *testing.T) {
	p := NewPagination(-1, 0, "", false)
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, DefaultPageSize, p.Size)

	p = NewPagination(2, 100000, "", false)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, MaxPageSize, p.Size)
}

func TestParseSort(t *testing.T) {
	column, desc := ParseSort("title")
	assert.Equal(t, "title", column)
	assert.False(t, desc)

	column, desc = ParseSort("-created_at")
	assert.Equal(t, "created_at", column)
	assert.True(t, desc)

	column, desc = ParseSort("")
	assert.Equal(t, "", column)
	assert.False(t, desc)
}

func TestSortSafeList(t *testing.T) {
	p := NewPagination(0, 10, "title", false).WithSortSafeList("id", "title", "author")
	assert.Equal(t, "title ASC", p.orderClause())

	// Columns outside the safe list fall back.
	p = NewPagination(0, 10, "password_hash", true).WithSortSafeList("id", "title", "author")
	assert.Equal(t, "id DESC", p.orderClause())
}

func TestFindPage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := entities.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.DB.Create(&user).Error)
	for _, title := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"} {
		require.NoError(t, db.DB.Create(&entities.Book{Title: title, Author: "X", CreatedByID: user.ID}).Error)
	}

	p := NewPagination(0, 2, "title", false).WithSortSafeList("id", "title")
	query := db.DB.Model(&entities.Book{})

	page, err := FindPage[entities.Book](query, p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha", page.Items[0].Title)

	// The last page holds the remainder.
	p = NewPagination(2, 2, "title", false).WithSortSafeList("id", "title")
	page, err = FindPage[entities.Book](db.DB.Model(&entities.Book{}), p)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Echo", page.Items[0].Title)

	// Descending order flips the first item.
	p = NewPagination(0, 2, "title", true).WithSortSafeList("id", "title")
	page, err = FindPage[entities.Book](db.DB.Model(&entities.Book{}), p)
	require.NoError(t, err)
	assert.Equal(t, "Echo", page.Items[0].Title)
}
