package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RelatedProductLimit caps the related products shown on a detail page.
const RelatedProductLimit = 4

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidProduct     = errors.New("invalid product")
)

// ProductInput is the admin form for a product. Tags is a comma separated list.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Tags        string
	Tag         string
	Category    string
	IsActive    bool
}

func (in ProductInput) apply(p *model.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.ImageURL = in.ImageURL
	p.Tags = model.ParseTags(in.Tags)
	p.Tag = in.Tag
	p.Category = in.Category
	p.IsActive = in.IsActive
}

type ProductDetail struct {
	Product *model.Product  `json:"product"`
	Related []model.Product `json:"related"`
}

type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	Shelf(ctx context.Context, category string) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductDetail(ctx context.Context, id string) (*ProductDetail, error)
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error)
	SetActive(ctx context.Context, id string, active bool) error
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	productRepo   repository.ProductRepository
	notifications NotificationService
}

func NewProductService(productRepo repository.ProductRepository, notifications NotificationService) ProductService {
	return &productService{
		productRepo:   productRepo,
		notifications: notifications,
	}
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"category": filter.Category,
		})
		return nil, err
	}
	return products, nil
}

// Shelf lists the active products of a storefront category, newest first.
func (s *productService) Shelf(ctx context.Context, category string) ([]model.Product, error) {
	return s.ListProducts(ctx, repository.ProductFilter{
		Category:   category,
		ActiveOnly: true,
		OrderBy:    "created_at",
	})
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProductDetail(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	related, err := s.productRepo.FindRelated(ctx, product, RelatedProductLimit)
	if err != nil {
		// Related products are decoration; the page still renders.
		logger.Warn("Failed to load related products", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		related = []model.Product{}
	}
	return &ProductDetail{Product: product, Related: related}, nil
}

// CreateProduct stores the product and then notifies every customer.
// Fan-out failures are logged and never fail the creation.
func (s *productService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{}
	in.apply(product)

	logger.Info("Creating product", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrInvalidRow) {
			return nil, ErrInvalidProduct
		}
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, err
	}

	if s.notifications != nil {
		if _, err := s.notifications.FanOutProduct(ctx, product); err != nil {
			logger.Warn("Product created but fan-out failed", map[string]interface{}{
				"product_id": product.ProductID,
				"error":      err.Error(),
			})
		}
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ProductID,
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrInvalidRow) {
			return nil, ErrInvalidProduct
		}
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}

func (s *productService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.productRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	logger.Info("Product visibility changed", map[string]interface{}{
		"product_id": id,
		"is_active":  active,
	})
	return nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
