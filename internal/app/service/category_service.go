package service

import (
	"context"
	"sort"
	"strings"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

// CategoryService derives category views from the catalog on every call.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]string, error)
	GroupByCategory(ctx context.Context) (map[string][]model.Product, error)
	ListByCategoryAndType(ctx context.Context, category, productType string) ([]model.Product, error)
}

type categoryService struct {
	productRepo repository.ProductRepository
}

func NewCategoryService(productRepo repository.ProductRepository) CategoryService {
	return &categoryService{productRepo: productRepo}
}

// NormalizeCategory trims and lowercases a label. Empty means the label is discarded.
func NormalizeCategory(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func (s *categoryService) ListCategories(ctx context.Context) ([]string, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to load products for categories", err)
		return nil, err
	}

	seen := make(map[string]struct{})
	categories := []string{}
	for _, product := range products {
		for _, label := range product.Category {
			normalized := NormalizeCategory(label)
			if normalized == "" {
				continue
			}
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			categories = append(categories, normalized)
		}
	}
	sort.Strings(categories)

	logger.Debug("Categories listed", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}

// GroupByCategory buckets products, most recent first, under each normalized label.
// A product listing the same label twice appears once in that bucket.
func (s *categoryService) GroupByCategory(ctx context.Context) (map[string][]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to load products for grouping", err)
		return nil, err
	}

	grouped := make(map[string][]model.Product)
	for _, product := range products {
		placed := make(map[string]struct{}, len(product.Category))
		for _, label := range product.Category {
			normalized := NormalizeCategory(label)
			if normalized == "" {
				continue
			}
			if _, ok := placed[normalized]; ok {
				continue
			}
			placed[normalized] = struct{}{}
			grouped[normalized] = append(grouped[normalized], product)
		}
	}

	logger.Debug("Products grouped by category", map[string]interface{}{
		"groups": len(grouped),
	})
	return grouped, nil
}

func (s *categoryService) ListByCategoryAndType(ctx context.Context, category, productType string) ([]model.Product, error) {
	products, err := s.productRepo.FindByCategoryAndType(ctx, category, productType)
	if err != nil {
		logger.Error("Failed to list products by category and type", err, map[string]interface{}{
			"category": category,
			"type":     productType,
		})
		return nil, err
	}
	return products, nil
}
