package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/config"
	"github.com/poshaakwala/storefront-backend/internal/errors"
	"github.com/poshaakwala/storefront-backend/internal/storage"
)

const UploadedFilesKey = "uploaded_files"

// formOverhead is the allowance for the non-file fields of a multipart body.
const formOverhead = 1 << 20

// UploadMiddleware validates the image files of a multipart request under field before the
// handler runs: file count, per-file size and sniffed content type. Valid files are read into
// memory and stored on the context. Non-multipart requests pass through untouched.
func UploadMiddleware(field string, cfg config.UploadConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			c.Next()
			return
		}

		log := GetLoggerFromContext(c)
		maxBody := int64(cfg.MaxFiles)*cfg.MaxFileBytes + formOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

		form, err := c.MultipartForm()
		if err != nil {
			log.Warn("Failed to parse multipart form", map[string]interface{}{
				"error": err.Error(),
			})
			errors.BadRequest(c, errors.ValidationInvalidFormat, "Invalid multipart form")
			c.Abort()
			return
		}

		headers := form.File[field]
		if len(headers) > cfg.MaxFiles {
			log.Warn("Too many files uploaded", map[string]interface{}{
				"field": field,
				"count": len(headers),
				"max":   cfg.MaxFiles,
			})
			errors.BadRequest(c, errors.UploadTooManyFiles, fmt.Sprintf("At most %d files may be uploaded", cfg.MaxFiles))
			c.Abort()
			return
		}

		files := make([]storage.File, 0, len(headers))
		for _, header := range headers {
			if err := storage.ValidateFileSize(header.Size, cfg.MaxFileBytes); err != nil {
				log.Warn("Uploaded file too large", map[string]interface{}{
					"filename": header.Filename,
					"size":     header.Size,
				})
				errors.BadRequest(c, errors.UploadFileTooLarge, fmt.Sprintf("%s: %s", header.Filename, err.Error()))
				c.Abort()
				return
			}

			f, err := header.Open()
			if err != nil {
				errors.BadRequest(c, errors.ValidationInvalidFormat, "Unreadable file "+header.Filename)
				c.Abort()
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, cfg.MaxFileBytes+1))
			f.Close()
			if err != nil {
				errors.BadRequest(c, errors.ValidationInvalidFormat, "Unreadable file "+header.Filename)
				c.Abort()
				return
			}

			contentType := mimetype.Detect(data).String()
			if err := storage.ValidateContentType(contentType, cfg.AllowedTypes); err != nil {
				log.Warn("Rejected upload content type", map[string]interface{}{
					"filename":     header.Filename,
					"content_type": contentType,
				})
				errors.BadRequest(c, errors.UploadInvalidFileType, fmt.Sprintf("%s: %s", header.Filename, err.Error()))
				c.Abort()
				return
			}

			files = append(files, storage.File{
				Filename:    header.Filename,
				ContentType: contentType,
				Data:        data,
			})
		}

		c.Set(UploadedFilesKey, files)
		c.Next()
	}
}

// GetUploadedFiles returns the files validated by UploadMiddleware, in upload order.
func GetUploadedFiles(c *gin.Context) []storage.File {
	if v, ok := c.Get(UploadedFilesKey); ok {
		if files, ok := v.([]storage.File); ok {
			return files
		}
	}
	return nil
}
