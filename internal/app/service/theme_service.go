package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

type ThemeService interface {
	GetTheme(ctx context.Context) (json.RawMessage, error)
	UpdateTheme(ctx context.Context, doc json.RawMessage) error
}

type themeService struct {
	themeRepo repository.ThemeRepository
}

func NewThemeService(themeRepo repository.ThemeRepository) ThemeService {
	return &themeService{themeRepo: themeRepo}
}

func (s *themeService) GetTheme(ctx context.Context) (json.RawMessage, error) {
	doc, err := s.themeRepo.Load(ctx)
	if err != nil {
		logger.Error("Failed to load theme", err)
		return nil, err
	}
	return doc, nil
}

func (s *themeService) UpdateTheme(ctx context.Context, doc json.RawMessage) error {
	if len(doc) == 0 || !json.Valid(doc) {
		return fmt.Errorf("%w: theme must be a JSON document", ErrValidation)
	}

	if err := s.themeRepo.Save(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrInvalidThemeDocument) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		logger.Error("Failed to save theme", err)
		return err
	}

	logger.Info("Theme updated", map[string]interface{}{
		"bytes": len(doc),
	})
	return nil
}
