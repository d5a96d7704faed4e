package services

import (
	"context"
	"errors"
	"strings"

	"depot-backend/internal/cache"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
)

type CustomerService struct {
	Repo     *repositories.CustomerRepository
	TypeRepo *repositories.CustomerTypeRepository
}

func NewCustomerService(repo *repositories.CustomerRepository, typeRepo *repositories.CustomerTypeRepository) *CustomerService {
	return &CustomerService{Repo: repo, TypeRepo: typeRepo}
}

func (s *CustomerService) validate(ctx context.Context, req *models.CustomerInput) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)

	v := &validator{}
	v.check(req.Name != "", "name is required")
	v.check(req.Phone != "", "phone is required")
	if err := v.Err(); err != nil {
		return err
	}

	if req.CustomerTypeID != nil {
		if _, err := s.TypeRepo.Get(ctx, *req.CustomerTypeID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return invalid("customer type %d does not exist", *req.CustomerTypeID)
			}
			return err
		}
	}
	return nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req *models.CustomerInput) (*models.Customer, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:           req.Name,
		Phone:          req.Phone,
		Address:        strings.TrimSpace(req.Address),
		CustomerTypeID: req.CustomerTypeID,
	}
	if err := s.Repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	return s.Repo.Get(ctx, customer.ID)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	return s.Repo.Get(ctx, id)
}

func (s *CustomerService) ListCustomers(ctx context.Context, f models.CustomerFilter) ([]*models.Customer, error) {
	return s.Repo.List(ctx, f)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id int, req *models.CustomerInput) (*models.Customer, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		ID:             id,
		Name:           req.Name,
		Phone:          req.Phone,
		Address:        strings.TrimSpace(req.Address),
		CustomerTypeID: req.CustomerTypeID,
	}
	if err := s.Repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	return s.Repo.Get(ctx, id)
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, id int) error {
	if err := s.Repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateCustomerCaches(ctx)
	return nil
}

// SetMOU records whether the customer signed an MOU. It cannot be revoked
// while the customer owes crates.
func (s *CustomerService) SetMOU(ctx context.Context, id int, signed bool) (*models.Customer, error) {
	err := s.Repo.SetMOU(ctx, id, signed)
	if errors.Is(err, repositories.ErrConflict) {
		if _, getErr := s.Repo.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, transition("customer owes crates, settle the balance before revoking the MOU")
	}
	if err != nil {
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	return s.Repo.Get(ctx, id)
}

// ListTypes is served from cache when available
func (s *CustomerService) ListTypes(ctx context.Context) ([]*models.CustomerType, error) {
	var types []*models.CustomerType
	if cache.GetJSON(ctx, cache.CustomerTypesKey, &types) {
		return types, nil
	}

	types, err := s.TypeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, cache.CustomerTypesKey, types, cache.CustomerTypesTTL)
	return types, nil
}

func validateType(req *models.CustomerTypeInput) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.PriceTier == "" {
		req.PriceTier = models.PriceTierRetail
	}
	v := &validator{}
	v.check(req.Name != "", "name is required")
	v.check(req.PriceTier == models.PriceTierWholesale || req.PriceTier == models.PriceTierRetail,
		"price tier must be wholesale or retail")
	return v.Err()
}

func (s *CustomerService) CreateType(ctx context.Context, req *models.CustomerTypeInput) (*models.CustomerType, error) {
	if err := validateType(req); err != nil {
		return nil, err
	}
	t := &models.CustomerType{Name: req.Name, PriceTier: req.PriceTier}
	if err := s.TypeRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("customer type %q already exists", req.Name)
		}
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	return t, nil
}

func (s *CustomerService) UpdateType(ctx context.Context, id int, req *models.CustomerTypeInput) (*models.CustomerType, error) {
	if err := validateType(req); err != nil {
		return nil, err
	}
	t := &models.CustomerType{ID: id, Name: req.Name, PriceTier: req.PriceTier}
	if err := s.TypeRepo.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("customer type %q already exists", req.Name)
		}
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	return s.TypeRepo.Get(ctx, id)
}
