package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	apperrors "github.com/poshaakwala/storefront-backend/internal/errors"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
)

// maxThemeBytes bounds the theme document a client may store.
const maxThemeBytes = 1 << 20

type ThemeController struct {
	themeService service.ThemeService
}

func NewThemeController(themeService service.ThemeService) *ThemeController {
	return &ThemeController{
		themeService: themeService,
	}
}

// GetTheme returns the stored theme document
// GET /api/theme
func (ctrl *ThemeController) GetTheme(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	doc, err := ctrl.themeService.GetTheme(c.Request.Context())
	if err != nil {
		log.Error("Failed to load theme", err)
		apperrors.InternalError(c, "Failed to load theme")
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

// UpdateTheme replaces the theme document
// PUT /api/theme
func (ctrl *ThemeController) UpdateTheme(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxThemeBytes+1))
	if err != nil || len(body) > maxThemeBytes {
		log.Warn("Unreadable theme body", map[string]interface{}{
			"bytes": len(body),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid theme document")
		return
	}

	if err := ctrl.themeService.UpdateTheme(c.Request.Context(), json.RawMessage(body)); err != nil {
		respondServiceError(c, log, err, "Save theme", map[string]interface{}{
			"bytes": len(body),
		})
		return
	}

	log.Info("Theme saved", map[string]interface{}{
		"bytes": len(body),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
