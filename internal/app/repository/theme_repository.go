package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

var ErrInvalidThemeDocument = errors.New("theme document is not valid JSON")

var emptyTheme = json.RawMessage(`{}`)

// ThemeRepository stores the theme settings as a single JSON document on disk.
type ThemeRepository interface {
	Load(ctx context.Context) (json.RawMessage, error)
	Save(ctx context.Context, doc json.RawMessage) error
}

type fileThemeRepository struct {
	path string
	mu   sync.Mutex
}

func NewThemeRepository(path string) ThemeRepository {
	return &fileThemeRepository{path: path}
}

// Load returns the stored document, creating an empty one when none exists yet.
func (r *fileThemeRepository) Load(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("Theme file missing, creating empty theme", map[string]interface{}{
			"path": r.path,
		})
		if err := r.write(emptyTheme); err != nil {
			return nil, err
		}
		return emptyTheme, nil
	}
	if err != nil {
		logger.Error("Failed to read theme file", err, map[string]interface{}{
			"path": r.path,
		})
		return nil, fmt.Errorf("read theme: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidThemeDocument, r.path)
	}
	return json.RawMessage(data), nil
}

// Save replaces the stored document. Readers never observe a partially written file.
func (r *fileThemeRepository) Save(ctx context.Context, doc json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return ErrInvalidThemeDocument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.write(doc); err != nil {
		return err
	}

	logger.Debug("Theme file saved", map[string]interface{}{
		"path":  r.path,
		"bytes": len(doc),
	})
	return nil
}

func (r *fileThemeRepository) write(doc json.RawMessage) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc, "", "  "); err != nil {
		return ErrInvalidThemeDocument
	}
	pretty.WriteByte('\n')

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".theme-*.json")
	if err != nil {
		logger.Error("Failed to create temporary theme file", err, map[string]interface{}{
			"dir": dir,
		})
		return fmt.Errorf("write theme: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write theme: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		logger.Error("Failed to replace theme file", err, map[string]interface{}{
			"path": r.path,
		})
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}
