package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	"github.com/poshaakwala/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCategoryControllerTest(t *testing.T) *gin.Engine {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	for _, p := range []*model.Product{
		{Title: "Sandal", Price: 25, Category: []string{"Footwear", "Summer"}, Type: "Casual"},
		{Title: "Loafer", Price: 70, Category: []string{"FootWear"}, Type: "Formal"},
	} {
		require.NoError(t, productRepo.Create(context.Background(), p))
	}

	categoryController := NewCategoryController(service.NewCategoryService(productRepo))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/categories", categoryController.ListCategories)
	router.GET("/categories/grouped", categoryController.GroupedProducts)
	router.GET("/categories/products", categoryController.ProductsByCategoryAndType)
	return router
}

func TestCategoryController_ListCategories(t *testing.T) {
	router := setupCategoryControllerTest(t)

	w := doJSON(router, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["footwear","summer"]`, w.Body.String())
}

func TestCategoryController_Grouped(t *testing.T) {
	router := setupCategoryControllerTest(t)

	w := doJSON(router, http.MethodGet, "/categories/grouped", "")
	require.Equal(t, http.StatusOK, w.Code)

	var grouped map[string][]model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grouped))
	assert.Len(t, grouped["footwear"], 2)
	assert.Len(t, grouped["summer"], 1)
}

func TestCategoryController_ProductsByCategoryAndType(t *testing.T) {
	router := setupCategoryControllerTest(t)

	w := doJSON(router, http.MethodGet, "/categories/products?category=FOOTWEAR&type=formal", "")
	require.Equal(t, http.StatusOK, w.Code)

	var products []model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Loafer", products[0].Title)
}
