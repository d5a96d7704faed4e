package services

import (
	"context"
	"errors"
	"strings"

	"depot-backend/internal/cache"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
)

type ProductService struct {
	Repo *repositories.ProductRepository
}

func NewProductService(repo *repositories.ProductRepository) *ProductService {
	return &ProductService{Repo: repo}
}

// ValidateProduct normalises and checks a product form
func ValidateProduct(req *models.ProductInput) error {
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)

	v := &validator{}
	v.check(req.SKU != "", "sku is required")
	v.check(req.Name != "", "name is required")
	v.check(!req.WholesalePrice.IsNegative(), "wholesale price cannot be negative")
	v.check(!req.RetailPrice.IsNegative(), "retail price cannot be negative")
	v.check(req.ReorderLevel >= 0, "reorder level cannot be negative")
	return v.Err()
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.ProductInput) (*models.Product, error) {
	if err := ValidateProduct(req); err != nil {
		return nil, err
	}
	p := &models.Product{
		SKU:            req.SKU,
		Name:           req.Name,
		WholesalePrice: req.WholesalePrice.Round(2),
		RetailPrice:    req.RetailPrice.Round(2),
		IsReturnable:   req.IsReturnable,
		ReorderLevel:   req.ReorderLevel,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("sku %s already exists", req.SKU)
		}
		return nil, err
	}
	cache.InvalidateProductCaches(ctx)
	return s.Repo.Get(ctx, p.ID)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int, req *models.ProductInput) (*models.Product, error) {
	if err := ValidateProduct(req); err != nil {
		return nil, err
	}
	p := &models.Product{
		ID:             id,
		SKU:            req.SKU,
		Name:           req.Name,
		WholesalePrice: req.WholesalePrice.Round(2),
		RetailPrice:    req.RetailPrice.Round(2),
		IsReturnable:   req.IsReturnable,
		ReorderLevel:   req.ReorderLevel,
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("sku %s already exists", req.SKU)
		}
		return nil, err
	}
	cache.InvalidateProductCaches(ctx)
	return s.Repo.Get(ctx, id)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.Repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateProductCaches(ctx)
	return nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	return s.Repo.Get(ctx, id)
}

// ListProducts serves the unfiltered active list from cache
func (s *ProductService) ListProducts(ctx context.Context, f models.ProductFilter) ([]*models.Product, error) {
	if f.Search != "" || f.IncludeDeleted {
		return s.Repo.List(ctx, f)
	}

	products, err := s.activeProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, nil, f.ReturnableOnly), nil
}

// Picker returns active products not already in the form
func (s *ProductService) Picker(ctx context.Context, exclude []int, returnableOnly bool) ([]*models.Product, error) {
	products, err := s.activeProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, exclude, returnableOnly), nil
}

func (s *ProductService) activeProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	if cache.GetJSON(ctx, cache.ProductsKey, &products) {
		return products, nil
	}

	products, err := s.Repo.List(ctx, models.ProductFilter{})
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, cache.ProductsKey, products, cache.ProductsTTL)
	return products, nil
}
