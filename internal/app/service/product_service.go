package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/internal/storage"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Catalog event types broadcast to subscribers.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ImageStore hosts product images. Upload returns the public URL and the identifier used to delete.
type ImageStore interface {
	Upload(ctx context.Context, body []byte, contentType string) (url string, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}

// UploadIntentLog remembers uploads that no stored product references yet so a sweeper can
// remove them if the request never commits.
type UploadIntentLog interface {
	Record(ctx context.Context, keys ...string) error
	Commit(ctx context.Context, keys ...string) error
}

// EventPublisher receives catalog changes. product is nil for deletions.
type EventPublisher interface {
	Publish(eventType string, productID uint, product *model.Product)
}

// ProductInput carries the normalized fields of a create or update request.
type ProductInput struct {
	Title        string
	Description  string
	Price        *decimal.Decimal // nil when the client sent none
	Category     []string
	Brand        string
	Type         string
	Capacity     string
	ProductLinks []string
	Tags         []string
}

// ProductUpdateInput adds the image merge instructions of an update.
type ProductUpdateInput struct {
	ProductInput
	ExistingImages  []model.ExistingImage
	RemovedImageIDs []string
	NewImageTags    []model.ImageTagValue
}

type ProductListOptions struct {
	Search     string
	Categories []string
	Tags       []string
	Type       string
	Sort       string
	Latest     bool
}

type ProductService interface {
	CreateProduct(ctx context.Context, input ProductInput, imageTags []model.ImageTagValue, files []storage.File) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductUpdateInput, files []storage.File) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	ListProducts(ctx context.Context, opts ProductListOptions) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	images      ImageStore
	intents     UploadIntentLog
	events      EventPublisher
}

// NewProductService wires the catalog. intents and events may be nil.
func NewProductService(productRepo repository.ProductRepository, images ImageStore, intents UploadIntentLog, events EventPublisher) ProductService {
	if intents == nil {
		intents = noopIntentLog{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &productService{
		productRepo: productRepo,
		images:      images,
		intents:     intents,
		events:      events,
	}
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput, imageTags []model.ImageTagValue, files []storage.File) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"title":  input.Title,
		"images": len(files),
	})

	if err := validateProductInput(input); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	images, err := s.uploadImages(ctx, files, imageTags)
	if err != nil {
		return nil, err
	}

	product := &model.Product{Images: images}
	applyProductInput(product, input)

	if err := s.productRepo.Create(ctx, product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"title": input.Title,
		})
		return nil, err
	}
	s.commitUploads(ctx, images)

	s.events.Publish(EventProductCreated, product.ID, product)

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"images":     len(product.Images),
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, input ProductUpdateInput, files []storage.File) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
		"existing":   len(input.ExistingImages),
		"removed":    len(input.RemovedImageIDs),
		"new_images": len(files),
	})

	if err := validateProductInput(input.ProductInput); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	removed := make(map[string]struct{}, len(input.RemovedImageIDs))
	for _, publicID := range input.RemovedImageIDs {
		if publicID != "" {
			removed[publicID] = struct{}{}
		}
	}

	// only objects that belong to this product are ever deleted
	var doomed []string
	for _, publicID := range product.PublicIDs() {
		if _, ok := removed[publicID]; ok {
			doomed = append(doomed, publicID)
		}
	}

	images := make([]model.Image, 0, len(input.ExistingImages)+len(files))
	for _, existing := range input.ExistingImages {
		if existing.PublicID == "" {
			continue
		}
		if _, ok := removed[existing.PublicID]; ok {
			continue
		}
		images = append(images, existing.ToImage())
	}

	uploaded, err := s.uploadImages(ctx, files, input.NewImageTags)
	if err != nil {
		return nil, err
	}
	images = append(images, uploaded...)

	applyProductInput(product, input.ProductInput)
	product.Images = images

	if err := s.productRepo.Update(ctx, product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	s.commitUploads(ctx, uploaded)

	for _, publicID := range doomed {
		s.deleteImage(ctx, product.ID, publicID)
	}

	s.events.Publish(EventProductUpdated, product.ID, product)

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
		"images":     len(product.Images),
	})
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}

	for _, publicID := range product.PublicIDs() {
		s.deleteImage(ctx, product.ID, publicID)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	s.events.Publish(EventProductDeleted, id, nil)

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *productService) ListProducts(ctx context.Context, opts ProductListOptions) ([]model.Product, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"search":     opts.Search,
		"categories": opts.Categories,
		"tags":       opts.Tags,
		"type":       opts.Type,
		"sort":       opts.Sort,
		"latest":     opts.Latest,
	})

	filter := repository.ProductFilter{
		Search:     opts.Search,
		Categories: opts.Categories,
		Tags:       opts.Tags,
		Type:       opts.Type,
		Latest:     opts.Latest,
		Limit:      repository.MaxProductResults,
	}
	switch repository.ProductSort(opts.Sort) {
	case repository.ProductSortPriceAsc, repository.ProductSortPriceDesc:
		filter.SortBy = repository.ProductSort(opts.Sort)
	}

	products, err := s.productRepo.FindWithFilter(ctx, filter)
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	return s.findProduct(ctx, id)
}

func (s *productService) findProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to load product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

// uploadImages stores files in order. Image i takes the sanitized tag at position i.
// Each upload is recorded in the intent log as soon as it succeeds.
func (s *productService) uploadImages(ctx context.Context, files []storage.File, tags []model.ImageTagValue) ([]model.Image, error) {
	images := make([]model.Image, 0, len(files))
	for i, file := range files {
		url, publicID, err := s.images.Upload(ctx, file.Data, file.ContentType)
		if err != nil {
			logger.Error("Failed to upload product image", err, map[string]interface{}{
				"index":    i,
				"filename": file.Filename,
				"uploaded": len(images),
			})
			return nil, fmt.Errorf("%w: %s: %v", ErrImageUpload, file.Filename, err)
		}
		if err := s.intents.Record(ctx, publicID); err != nil {
			logger.Warn("Failed to record upload intent", map[string]interface{}{
				"public_id": publicID,
				"error":     err.Error(),
			})
		}
		images = append(images, model.Image{
			URL:      url,
			PublicID: publicID,
			Tag:      model.ImageTagAt(tags, i),
		})
	}
	return images, nil
}

func (s *productService) commitUploads(ctx context.Context, images []model.Image) {
	if len(images) == 0 {
		return
	}
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.PublicID)
	}
	if err := s.intents.Commit(ctx, keys...); err != nil {
		logger.Warn("Failed to commit upload intents", map[string]interface{}{
			"count": len(keys),
			"error": err.Error(),
		})
	}
}

func (s *productService) deleteImage(ctx context.Context, productID uint, publicID string) {
	if err := s.images.Delete(ctx, publicID); err != nil {
		logger.Warn("Failed to delete product image", map[string]interface{}{
			"product_id": productID,
			"public_id":  publicID,
			"error":      err.Error(),
		})
	}
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Price == nil {
		return fmt.Errorf("%w: price is required", ErrValidation)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

func applyProductInput(product *model.Product, input ProductInput) {
	product.Title = strings.TrimSpace(input.Title)
	product.Description = input.Description
	product.Price = input.Price.Round(2).InexactFloat64()
	product.Category = input.Category
	product.Brand = input.Brand
	product.Type = input.Type
	product.Capacity = input.Capacity
	product.ProductLinks = input.ProductLinks
	product.Tags = input.Tags
}

type noopIntentLog struct{}

func (noopIntentLog) Record(context.Context, ...string) error { return nil }
func (noopIntentLog) Commit(context.Context, ...string) error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(string, uint, *model.Product) {}
