package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

// ListCategories returns every distinct normalized category label
// GET /api/categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err, "List categories", nil)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// GroupedProducts returns products bucketed by category label
// GET /api/categories/grouped
func (ctrl *CategoryController) GroupedProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	grouped, err := ctrl.categoryService.GroupByCategory(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err, "Group products by category", nil)
		return
	}

	log.Debug("Products grouped by category", map[string]interface{}{
		"categories": len(grouped),
	})

	c.JSON(http.StatusOK, grouped)
}

// ProductsByCategoryAndType filters by exact category membership and exact type
// GET /api/categories/products?category=&type=
func (ctrl *CategoryController) ProductsByCategoryAndType(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	category := c.Query("category")
	productType := c.Query("type")

	products, err := ctrl.categoryService.ListByCategoryAndType(c.Request.Context(), category, productType)
	if err != nil {
		respondServiceError(c, log, err, "List products by category", map[string]interface{}{
			"category": category,
			"type":     productType,
		})
		return
	}

	c.JSON(http.StatusOK, products)
}
