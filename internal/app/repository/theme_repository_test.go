package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeRepository_LoadCreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.json")
	repo := NewThemeRepository(path)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(doc))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestThemeRepository_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.json")
	repo := NewThemeRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, json.RawMessage(`{"primary":"#112233","fonts":{"body":"Inter"}}`)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"primary\"")

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"primary":"#112233","fonts":{"body":"Inter"}}`, string(doc))
}

func TestThemeRepository_SaveRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.json")
	repo := NewThemeRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, json.RawMessage(`{"a":1}`)))
	err := repo.Save(ctx, json.RawMessage(`{"a":`))
	assert.ErrorIs(t, err, ErrInvalidThemeDocument)

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(doc))
}
