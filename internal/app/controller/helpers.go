package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	apperrors "github.com/poshaakwala/storefront-backend/internal/errors"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// splitQueryList collects a query list given either repeated or comma separated.
func splitQueryList(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

// respondServiceError maps a service failure to its response. Unknown failures become a
// generic 500; the detail stays in the log.
func respondServiceError(c *gin.Context, log *logger.Logger, err error, action string, fields map[string]interface{}) {
	switch {
	case errors.Is(err, service.ErrValidation):
		log.Warn(action+": invalid input", withError(fields, err))
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.Is(err, service.ErrProductNotFound):
		log.Warn(action+": product not found", withError(fields, err))
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrCartNotFound):
		log.Warn(action+": cart not found", withError(fields, err))
		apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
	case errors.Is(err, service.ErrImageUpload):
		log.Error(action+": image upload failed", err, fields)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Image upload failed")
	default:
		log.Error(action+" failed", err, fields)
		apperrors.InternalError(c, "")
	}
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
