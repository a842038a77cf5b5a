package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	apperrors "github.com/poshaakwala/storefront-backend/internal/errors"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
	"github.com/poshaakwala/storefront-backend/pkg/clerk"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

// ListUsers returns the identity provider's users, normalized
// GET /api/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	users, err := ctrl.adminService.ListUsers(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch users", err)
		apperrors.InternalError(c, "Failed to fetch users")
		return
	}

	log.Info("Users fetched successfully", map[string]interface{}{
		"count": len(users),
	})

	c.JSON(http.StatusOK, users)
}

// ExportProducts downloads the catalog as an xlsx workbook
// GET /api/admin/products/export
func (ctrl *AdminController) ExportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	data, err := ctrl.adminService.ExportProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err, "Export products", nil)
		return
	}

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// StampingStatus reports the signed-in user's machine stamping deadlines
// GET /api/stamping/status
func (ctrl *AdminController) StampingStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	status, err := ctrl.adminService.StampingStatus(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, clerk.ErrUserNotFound) {
			log.Warn("Stamping status for unknown user", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to get stamping status", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
	})
}
