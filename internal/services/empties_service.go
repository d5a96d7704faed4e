package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"depot-backend/internal/cache"
	"depot-backend/internal/db"
	"depot-backend/internal/metrics"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
)

// EmptiesService keeps the crate ledger and customer balances in step
type EmptiesService struct {
	DB           db.TxStarter
	Repo         *repositories.EmptiesRepository
	CustomerRepo *repositories.CustomerRepository
	ProductRepo  *repositories.ProductRepository
}

func NewEmptiesService(pool db.TxStarter, repo *repositories.EmptiesRepository,
	customerRepo *repositories.CustomerRepository, productRepo *repositories.ProductRepository) *EmptiesService {
	return &EmptiesService{DB: pool, Repo: repo, CustomerRepo: customerRepo, ProductRepo: productRepo}
}

// RecordReturn credits crates brought back by a customer
func (s *EmptiesService) RecordReturn(ctx context.Context, req *models.EmptiesReturnRequest, userID int) (*models.EmptiesLog, error) {
	if req.CustomerID <= 0 {
		return nil, invalid("customer is required")
	}
	if err := ValidateItems(req.Items); err != nil {
		return nil, err
	}

	var entry *models.EmptiesLog
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		products, err := s.ProductRepo.WithTx(tx).GetMany(ctx, ItemIDs(req.Items))
		if err != nil {
			return err
		}

		total := 0
		var details []models.EmptiesLogDetail
		for _, it := range req.Items {
			p, ok := products[it.ProductID]
			if !ok || !p.Active() {
				return invalid("product %d is not available", it.ProductID)
			}
			if !p.IsReturnable {
				return invalid("%s is not a returnable product", p.Name)
			}
			total += it.Quantity
			details = append(details, models.EmptiesLogDetail{ProductID: p.ID, ProductName: p.Name, Quantity: it.Quantity})
		}

		balance, err := s.CustomerRepo.WithTx(tx).AdjustBalance(ctx, req.CustomerID, total)
		if errors.Is(err, repositories.ErrConflict) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		entry = &models.EmptiesLog{
			CustomerID:      req.CustomerID,
			EntryType:       models.EmptiesReturn,
			TotalQuantity:   total,
			BalanceAfter:    balance,
			Notes:           strings.TrimSpace(req.Notes),
			CreatedByUserID: userID,
			Details:         details,
		}
		return s.Repo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	metrics.EmptiesMovements.WithLabelValues(models.EmptiesReturn).Inc()
	cache.InvalidateCustomerCaches(ctx)
	return entry, nil
}

// Adjust applies a signed correction. Negative corrections obey the MOU rule.
func (s *EmptiesService) Adjust(ctx context.Context, req *models.EmptiesAdjustmentRequest, userID int) (*models.EmptiesLog, error) {
	v := &validator{}
	v.check(req.CustomerID > 0, "customer is required")
	v.check(req.Delta != 0, "adjustment cannot be zero")
	v.check(strings.TrimSpace(req.Notes) != "", "notes are required for an adjustment")
	if err := v.Err(); err != nil {
		return nil, err
	}

	var entry *models.EmptiesLog
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		customers := s.CustomerRepo.WithTx(tx)
		if _, err := customers.GetForUpdate(ctx, req.CustomerID); err != nil {
			return err
		}

		balance, err := customers.AdjustBalance(ctx, req.CustomerID, req.Delta)
		if errors.Is(err, repositories.ErrConflict) {
			return ErrInsufficientEmpties
		}
		if err != nil {
			return err
		}

		entry = &models.EmptiesLog{
			CustomerID:      req.CustomerID,
			EntryType:       models.EmptiesAdjustment,
			TotalQuantity:   req.Delta,
			BalanceAfter:    balance,
			Notes:           strings.TrimSpace(req.Notes),
			CreatedByUserID: userID,
		}
		return s.Repo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	metrics.EmptiesMovements.WithLabelValues(models.EmptiesAdjustment).Inc()
	cache.InvalidateCustomerCaches(ctx)
	return entry, nil
}

func (s *EmptiesService) GetLog(ctx context.Context, id int) (*models.EmptiesLog, error) {
	return s.Repo.Get(ctx, id)
}

func (s *EmptiesService) ListLogs(ctx context.Context, f models.EmptiesLogFilter) ([]*models.EmptiesLog, error) {
	switch f.EntryType {
	case "", models.EmptiesReturn, models.EmptiesSale, models.EmptiesReversal, models.EmptiesAdjustment:
	default:
		return nil, invalid("unknown entry type %q", f.EntryType)
	}
	return s.Repo.List(ctx, f)
}

func (s *EmptiesService) ListBalances(ctx context.Context, nonZeroOnly bool) ([]*models.CrateBalance, error) {
	return s.CustomerRepo.ListBalances(ctx, nonZeroOnly)
}
