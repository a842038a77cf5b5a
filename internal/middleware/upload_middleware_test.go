package middleware

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFiles:     2,
		MaxFileBytes: 1024,
		AllowedTypes: []string{"image/png", "image/jpeg"},
	}
}

type part struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, field string, parts []part, values map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func setupUploadRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/upload", UploadMiddleware("images", testUploadConfig()), func(c *gin.Context) {
		files := GetUploadedFiles(c)
		names := make([]string, 0, len(files))
		types := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Filename)
			types = append(types, f.ContentType)
		}
		c.JSON(http.StatusOK, gin.H{"names": names, "types": types, "title": c.PostForm("title")})
	})
	return router
}

func TestUploadMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		parts      []part
		wantStatus int
		wantCode   string
	}{
		{"no files", nil, http.StatusOK, ""},
		{"valid files", []part{{"a.png", pngHeader}, {"b.png", pngHeader}}, http.StatusOK, ""},
		{"too many files", []part{{"a.png", pngHeader}, {"b.png", pngHeader}, {"c.png", pngHeader}}, http.StatusBadRequest, "UPLOAD_TOO_MANY_FILES"},
		{"too large", []part{{"big.png", append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)}}, http.StatusBadRequest, "UPLOAD_FILE_TOO_LARGE"},
		{"sniffed type wins over extension", []part{{"evil.png", []byte("plain text pretending")}}, http.StatusBadRequest, "UPLOAD_INVALID_FILE_TYPE"},
	}

	router := setupUploadRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, "images", tt.parts, map[string]string{"title": "Lamp"})
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp["error"])
				return
			}
			assert.Equal(t, "Lamp", resp["title"])
			assert.Len(t, resp["names"], len(tt.parts))
			for _, ct := range resp["types"].([]interface{}) {
				assert.Equal(t, "image/png", ct)
			}
		})
	}
}

func TestUploadMiddleware_PassesJSONThrough(t *testing.T) {
	router := setupUploadRouter()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}
