package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciaranmckenna/book-club/internal/services"
)

type CategoriesController struct {
	categories *services.CategoryService
	books      *services.BookCatalogService
}

func NewCategoriesController(categories *services.CategoryService, books *services.BookCatalogService) *CategoriesController {
	return &CategoriesController{
		categories: categories,
		books:      books,
	}
}

// GetAllCategories returns categories, filtered by name when asked, or
// ordered by how many books each one holds.
func (controller *CategoriesController) GetAllCategories(c *gin.Context) {
	if term := c.Query("name"); term != "" {
		matches, err := controller.categories.SearchCategoriesByName(term)
		if err != nil {
			respondServiceError(c, err, "search categories")
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"categories": matches, "count": len(matches)})
		return
	}
	if c.Query("order") == "book_count" {
		counted, err := controller.categories.GetCategoriesOrderedByBookCount()
		if err != nil {
			respondServiceError(c, err, "list categories by book count")
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"categories": counted, "count": len(counted)})
		return
	}

	categories, err := controller.categories.GetAllCategories()
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

// GetCategory returns a single category with its book count.
func (controller *CategoriesController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := controller.categories.GetCategoryByID(id)
	if err != nil {
		respondServiceError(c, err, "get category")
		return
	}
	count, err := controller.categories.BookCount(id)
	if err != nil {
		respondServiceError(c, err, "count category books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"category": category, "book_count": count})
}

// GetCategoryBooks returns one page of the books attached to the
// category.
func (controller *CategoriesController) GetCategoryBooks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := controller.categories.GetCategoryByID(id); err != nil {
		respondServiceError(c, err, "get category")
		return
	}
	page, err := controller.books.FindBooksByCategory(id, parsePagination(c))
	if err != nil {
		respondServiceError(c, err, "list category books")
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// CreateCategory adds a category. Admin only; routed accordingly.
func (controller *CategoriesController) CreateCategory(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	category, err := controller.categories.CreateCategory(input)
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	respondCreated(c, category)
}

// UpdateCategory renames a category.
func (controller *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	category, err := controller.categories.UpdateCategory(id, input)
	if err != nil {
		respondServiceError(c, err, "update category")
		return
	}
	c.IndentedJSON(http.StatusOK, category)
}

// DeleteCategory removes a category, detaching its books.
func (controller *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.categories.DeleteCategory(id); err != nil {
		respondServiceError(c, err, "delete category")
		return
	}
	respondSuccess(c, "category deleted")
}
