package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	apperrors "github.com/poshaakwala/storefront-backend/internal/errors"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ListProducts returns the filtered catalog
// GET /api/products?search=&category=&tags=&type=&sort=&latest=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	latest, _ := strconv.ParseBool(c.Query("latest"))
	opts := service.ProductListOptions{
		Search:     c.Query("search"),
		Categories: splitQueryList(c, "category"),
		Tags:       splitQueryList(c, "tags"),
		Type:       c.Query("type"),
		Sort:       c.Query("sort"),
		Latest:     latest,
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, log, err, "List products", nil)
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(products),
	})

	c.JSON(http.StatusOK, products)
}

// GetProduct returns a product by ID
// GET /api/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": c.Param("id"),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, log, err, "Get product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct stores a product and its uploaded images
// POST /api/products (multipart field "images", or JSON)
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	payload, err := bindProductPayload(c)
	if err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, err.Error())
		return
	}

	files := middleware.GetUploadedFiles(c)
	product, err := ctrl.productService.CreateProduct(c.Request.Context(), payload.input(), payload.ImageTags, files)
	if err != nil {
		respondServiceError(c, log, err, "Create product", map[string]interface{}{
			"title":  payload.Title,
			"images": len(files),
		})
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product's fields and merges its image set
// PUT /api/products/:id (multipart field "newImages", or JSON)
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": c.Param("id"),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	payload, err := bindProductPayload(c)
	if err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, err.Error())
		return
	}

	files := middleware.GetUploadedFiles(c)
	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, payload.updateInput(), files)
	if err != nil {
		respondServiceError(c, log, err, "Update product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
		"images":     len(product.Images),
	})

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product after releasing its images
// DELETE /api/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": c.Param("id"),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, log, err, "Delete product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	log.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product and images deleted successfully",
	})
}
