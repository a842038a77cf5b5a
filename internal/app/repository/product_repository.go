package repository

import (
	"context"
	"strings"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// MaxProductResults caps every list query.
const MaxProductResults = 100

type ProductSort string

const (
	ProductSortDefault   ProductSort = ""
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
)

type ProductFilter struct {
	Search     string
	Categories []string
	Tags       []string
	Type       string
	Latest     bool
	SortBy     ProductSort
	Limit      int
}

// searchColumns are matched case-insensitively by a free-text search. labelColumns hold
// label lists and are matched against the stored label text.
var (
	searchColumns = []string{"title", "description", "brand", "type", "capacity"}
	labelColumns  = []string{"category", "tags", "product_links"}
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByCategoryAndType(ctx context.Context, category, productType string) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"title":    product.Title,
		"category": product.Category,
		"images":   len(product.Images),
	})

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"title":    product.Title,
			"category": product.Category,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	})
	return nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	logger.Debug("Finding all products in database")

	var products []model.Product
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to find all products in database", err)
		return nil, err
	}

	logger.Debug("All products found in database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"search":     filter.Search,
		"categories": filter.Categories,
		"tags":       filter.Tags,
		"type":       filter.Type,
		"latest":     filter.Latest,
		"sort_by":    filter.SortBy,
		"limit":      filter.Limit,
	})

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like, labelLike := containsPattern(search), labelContainsPattern(search)
		clauses := make([]string, 0, len(searchColumns)+len(labelColumns))
		args := make([]interface{}, 0, len(searchColumns)+len(labelColumns))
		for _, column := range searchColumns {
			clauses = append(clauses, "LOWER("+column+") LIKE ? ESCAPE '\\'")
			args = append(args, like)
		}
		for _, column := range labelColumns {
			clauses = append(clauses, "LOWER("+column+") LIKE ? ESCAPE '\\'")
			args = append(args, labelLike)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	switch categories := nonEmpty(filter.Categories); len(categories) {
	case 0:
	case 1:
		query = query.Where("LOWER(category) LIKE ? ESCAPE '\\'", labelContainsPattern(categories[0]))
	default:
		cond, args := anyElementMatch("category", categories)
		query = query.Where(cond, args...)
	}

	if tags := nonEmpty(filter.Tags); len(tags) > 0 {
		cond, args := anyElementMatch("tags", tags)
		query = query.Where(cond, args...)
	}

	if productType := strings.TrimSpace(filter.Type); productType != "" {
		query = query.Where("LOWER(type) LIKE ? ESCAPE '\\'", containsPattern(productType))
	}

	switch {
	case filter.Latest:
		query = query.Order("created_at DESC").Order("id DESC")
	case filter.SortBy == ProductSortPriceAsc:
		query = query.Order("price ASC").Order("id ASC")
	case filter.SortBy == ProductSortPriceDesc:
		query = query.Order("price DESC").Order("id ASC")
	default:
		query = query.Order("id ASC")
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxProductResults {
		limit = MaxProductResults
	}
	query = query.Limit(limit)

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"search":     filter.Search,
			"categories": filter.Categories,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	})
	return &product, nil
}

// FindByCategoryAndType matches category membership and type exactly, ignoring case.
// Empty arguments are not applied.
func (r *productRepository) FindByCategoryAndType(ctx context.Context, category, productType string) ([]model.Product, error) {
	logger.Debug("Finding products by category and type in database", map[string]interface{}{
		"category": category,
		"type":     productType,
	})

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if category = strings.TrimSpace(category); category != "" {
		cond, args := anyElementMatch("category", []string{category})
		query = query.Where(cond, args...)
	}
	if productType = strings.TrimSpace(productType); productType != "" {
		query = query.Where("LOWER(type) = ?", strings.ToLower(productType))
	}

	var products []model.Product
	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products by category and type in database", err, map[string]interface{}{
			"category": category,
			"type":     productType,
		})
		return nil, err
	}

	logger.Debug("Products found by category and type in database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
		"images":     len(product.Images),
	})

	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// anyElementMatch builds an OR of exact, case-insensitive element matches against a label list column.
func anyElementMatch(column string, values []string) (string, []interface{}) {
	clauses := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values))
	for _, value := range values {
		encoded := model.EncodeLabel(strings.ToLower(strings.TrimSpace(value)))
		clauses = append(clauses, "LOWER("+column+") LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(encoded)+"%")
	}
	return strings.Join(clauses, " OR "), args
}

func containsPattern(value string) string {
	return "%" + escapeLike(strings.ToLower(strings.TrimSpace(value))) + "%"
}

// labelContainsPattern matches value inside a single label of a label list column.
func labelContainsPattern(value string) string {
	return "%" + escapeLike(model.EscapeLabel(strings.ToLower(strings.TrimSpace(value)))) + "%"
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
