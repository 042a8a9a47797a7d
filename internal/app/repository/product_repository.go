package repository

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Zero values mean no constraint.
type ProductFilter struct {
	Category   string
	ActiveOnly bool
	Search     string
	OrderBy    string // created_at, price or name
	Ascending  bool
	Limit      int
}

var productOrderColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"name":       "name",
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindRelated(ctx context.Context, product *model.Product, limit int) ([]model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Listing products from database", map[string]interface{}{
		"category":    filter.Category,
		"active_only": filter.ActiveOnly,
		"search":      filter.Search,
		"order_by":    filter.OrderBy,
	})

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	column, ok := productOrderColumns[filter.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := " DESC"
	if filter.Ascending {
		direction = " ASC"
	}
	query = query.Order(column + direction)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	products := []model.Product{}
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to list products from database", err, map[string]interface{}{
			"category": filter.Category,
		})
		return nil, err
	}
	if err := validRows("products", products); err != nil {
		return nil, err
	}

	logger.Debug("Products listed from database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).First(&product).Error; err != nil {
		logger.Debug("Product lookup failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	if err := validRow("products", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindRelated returns active products sharing the category, or carrying
// every tag of product. The product itself is excluded.
func (r *productRepository) FindRelated(ctx context.Context, product *model.Product, limit int) ([]model.Product, error) {
	logger.Debug("Finding related products in database", map[string]interface{}{
		"product_id": product.ProductID,
		"category":   product.Category,
		"tags":       product.Tags,
	})

	base := r.db.WithContext(ctx).
		Where("is_active = ? AND product_id <> ?", true, product.ProductID).
		Order("created_at DESC")

	related := []model.Product{}
	switch {
	case len(product.Tags) == 0:
		if err := base.Where("category = ?", product.Category).Limit(limit).Find(&related).Error; err != nil {
			logger.Error("Failed to find related products", err, map[string]interface{}{
				"product_id": product.ProductID,
			})
			return nil, err
		}
	case r.db.Dialector.Name() == "postgres":
		err := base.Where("category = ? OR tags @> ?", product.Category, pq.StringArray(product.Tags)).
			Limit(limit).Find(&related).Error
		if err != nil {
			logger.Error("Failed to find related products", err, map[string]interface{}{
				"product_id": product.ProductID,
			})
			return nil, err
		}
	default:
		// No array operators: match tags in memory.
		var candidates []model.Product
		if err := base.Find(&candidates).Error; err != nil {
			logger.Error("Failed to find related products", err, map[string]interface{}{
				"product_id": product.ProductID,
			})
			return nil, err
		}
		for _, c := range candidates {
			if c.Category == product.Category || c.Tags.Contains(product.Tags) {
				related = append(related, c)
				if len(related) == limit {
					break
				}
			}
		}
	}

	if err := validRows("products", related); err != nil {
		return nil, err
	}
	return related, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	if err := validRow("products", product); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ProductID,
	})
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ProductID,
	})

	if err := validRow("products", product); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ProductID,
		})
		return err
	}
	return nil
}

func (r *productRepository) SetActive(ctx context.Context, id string, active bool) error {
	logger.Debug("Setting product visibility in database", map[string]interface{}{
		"product_id": id,
		"is_active":  active,
	})

	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		logger.Error("Failed to set product visibility", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the product along with cart and wishlist rows that point
// at it. Order items keep their snapshot.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.WishlistItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("product_id = ?", id).Delete(&model.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
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
