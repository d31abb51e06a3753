package database

import (
	"math"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination holds the page index, page size and sort specification for a
// paged finder. Page is zero-indexed. Sort must name a column on the
// caller's safe list; anything else falls back to the default column.
type Pagination struct {
	Page      int
	Size      int
	Sort      string
	Desc      bool
	SortSafe  []string
	SortFall  string
}

// NewPagination returns a Pagination with bounds applied.
func NewPagination(page, size int, sort string, desc bool) Pagination {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Pagination{Page: page, Size: size, Sort: sort, Desc: desc}
}

// WithSortSafeList sets the allowed sort columns and the fallback column.
func (p Pagination) WithSortSafeList(fallback string, safe ...string) Pagination {
	p.SortFall = fallback
	p.SortSafe = safe
	return p
}

func (p Pagination) sortColumn() string {
	for _, safe := range p.SortSafe {
		if p.Sort == safe {
			return p.Sort
		}
	}
	return p.SortFall
}

func (p Pagination) orderClause() string {
	column := p.sortColumn()
	if column == "" {
		return ""
	}
	direction := "ASC"
	if p.Desc {
		direction = "DESC"
	}
	return column + " " + direction
}

func (p Pagination) limit() int  { return p.Size }
func (p Pagination) offset() int { return p.Page * p.Size }

// Page is one page of results plus the metadata a caller needs to page
// through the full result set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	PageIndex  int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a Page from items and the total count.
func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	totalPages := 0
	if p.Size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.Size)))
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		PageIndex:  p.Page,
		Size:       p.Size,
		TotalPages: totalPages,
	}
}

// FindPage runs a counted, ordered, paged query and returns the page.
// The query argument must already carry its WHERE conditions and model.
func FindPage[T any](query *gorm.DB, p Pagination) (Page[T], error) {
	var items []T
	var total int64

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	scoped := query.Session(&gorm.Session{})
	if order := p.orderClause(); order != "" {
		scoped = scoped.Order(order)
	}
	err := scoped.Limit(p.limit()).Offset(p.offset()).Find(&items).Error
	if err != nil {
		return Page[T]{}, err
	}

	return NewPage(items, total, p), nil
}

// ParseSort splits the API-level sort parameter ("title", "-created_at")
// into a column and direction, the convention the list endpoints accept.
func ParseSort(sort string) (column string, desc bool) {
	if strings.HasPrefix(sort, "-") {
		return strings.TrimPrefix(sort, "-"), true
	}
	return sort, false
}
