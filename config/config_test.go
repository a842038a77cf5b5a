package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_MAX_FILES", "")
	t.Setenv("UPLOAD_MAX_FILE_MB", "")
	t.Setenv("THEME_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, "theme.json", cfg.Theme.FilePath)
	assert.Equal(t, time.Hour, cfg.Sweeper.Grace)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("UPLOAD_MAX_FILES", "3")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("ORPHAN_SWEEP_GRACE", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Upload.MaxFiles)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Sweeper.Grace)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db/shop"
	assert.Equal(t, "postgres://u:p@db/shop", cfg.DSN())
}
