package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/config"
	"github.com/poshaakwala/storefront-backend/internal/app/controller"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
)

// Multipart field names carrying product images.
const (
	createImagesField = "images"
	updateImagesField = "newImages"
)

type Router struct {
	productController   *controller.ProductController
	cartController      *controller.CartController
	categoryController  *controller.CategoryController
	themeController     *controller.ThemeController
	adminController     *controller.AdminController
	catalogWSController *controller.CatalogWSController
	authMiddleware      *middleware.AuthMiddleware
	config              *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	categoryController *controller.CategoryController,
	themeController *controller.ThemeController,
	adminController *controller.AdminController,
	catalogWSController *controller.CatalogWSController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:   productController,
		cartController:      cartController,
		categoryController:  categoryController,
		themeController:     themeController,
		adminController:     adminController,
		catalogWSController: catalogWSController,
		authMiddleware:      authMiddleware,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Storefront backend is live")
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "healthy",
			})
		})

		products := api.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.POST("", middleware.UploadMiddleware(createImagesField, r.config.Upload), r.productController.CreateProduct)
			products.PUT("/:id", middleware.UploadMiddleware(updateImagesField, r.config.Upload), r.productController.UpdateProduct)
			products.DELETE("/:id", r.productController.DeleteProduct)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", r.categoryController.ListCategories)
			categories.GET("/grouped", r.categoryController.GroupedProducts)
			categories.GET("/products", r.categoryController.ProductsByCategoryAndType)
		}

		cart := api.Group("/cart")
		{
			cart.POST("/add", r.cartController.AddToCart)
			cart.POST("/remove", r.cartController.RemoveFromCart)
			cart.GET("/:userId", r.cartController.GetCart)
		}

		theme := api.Group("/theme")
		{
			theme.GET("", r.themeController.GetTheme)
			theme.PUT("", r.themeController.UpdateTheme)
		}

		admin := api.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate())
		{
			admin.GET("/users", r.adminController.ListUsers)
			admin.GET("/products/export", r.adminController.ExportProducts)
		}

		api.GET("/stamping/status", r.authMiddleware.Authenticate(), r.adminController.StampingStatus)

		api.GET("/ws/catalog", r.catalogWSController.Subscribe)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
