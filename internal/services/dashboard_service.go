package services

import (
	"context"
	"time"

	"depot-backend/internal/cache"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/internal/timeutil"
)

type DashboardService struct {
	OrderRepo     *repositories.OrderRepository
	WarehouseRepo *repositories.WarehouseOrderRepository
	ProductRepo   *repositories.ProductRepository
	CustomerRepo  *repositories.CustomerRepository
}

func NewDashboardService(orderRepo *repositories.OrderRepository, warehouseRepo *repositories.WarehouseOrderRepository,
	productRepo *repositories.ProductRepository, customerRepo *repositories.CustomerRepository) *DashboardService {
	return &DashboardService{
		OrderRepo:     orderRepo,
		WarehouseRepo: warehouseRepo,
		ProductRepo:   productRepo,
		CustomerRepo:  customerRepo,
	}
}

// Summary returns today's figures, cached for a minute
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if cache.GetJSON(ctx, cache.DashboardSummaryKey, &summary) {
		return &summary, nil
	}

	now := timeutil.Now()
	from, to := timeutil.StartOfDay(now), timeutil.EndOfDay(now)

	counts, err := s.OrderRepo.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	total, err := s.OrderRepo.SalesTotal(ctx, from, to)
	if err != nil {
		return nil, err
	}
	pending, err := s.WarehouseRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.ProductRepo.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	crates, err := s.CustomerRepo.OutstandingCrates(ctx)
	if err != nil {
		return nil, err
	}

	summary = models.DashboardSummary{
		Date:                   now.Format(timeutil.DateLayout),
		OrdersByStatus:         counts,
		SalesTotal:             total,
		PendingWarehouseOrders: pending,
		LowStock:               low,
		OutstandingCrates:      crates,
		GeneratedAt:            time.Now(),
	}
	cache.SetJSON(ctx, cache.DashboardSummaryKey, summary, cache.DashboardTTL)
	return &summary, nil
}
