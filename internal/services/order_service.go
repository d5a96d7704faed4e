package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"depot-backend/internal/cache"
	"depot-backend/internal/db"
	"depot-backend/internal/metrics"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
)

// Notifier receives warehouse pipeline events after their transaction commits
type Notifier interface {
	Broadcast(event models.WarehouseEvent)
}

// OrderService runs the checkout → approval → warehouse dispatch pipeline.
// Every step that touches more than one table runs in one transaction.
type OrderService struct {
	DB            db.TxStarter
	OrderRepo     *repositories.OrderRepository
	WarehouseRepo *repositories.WarehouseOrderRepository
	CustomerRepo  *repositories.CustomerRepository
	ProductRepo   *repositories.ProductRepository
	EmptiesRepo   *repositories.EmptiesRepository
	Notifier      Notifier
	log           *zap.Logger
}

func NewOrderService(
	pool db.TxStarter,
	orderRepo *repositories.OrderRepository,
	warehouseRepo *repositories.WarehouseOrderRepository,
	customerRepo *repositories.CustomerRepository,
	productRepo *repositories.ProductRepository,
	emptiesRepo *repositories.EmptiesRepository,
	notifier Notifier,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		DB:            pool,
		OrderRepo:     orderRepo,
		WarehouseRepo: warehouseRepo,
		CustomerRepo:  customerRepo,
		ProductRepo:   productRepo,
		EmptiesRepo:   emptiesRepo,
		Notifier:      notifier,
		log:           log,
	}
}

func validateCheckout(req *models.CheckoutRequest) error {
	v := &validator{}
	v.check(req.CustomerID > 0, "customer is required")
	v.check(models.ValidPaymentMethod(req.PaymentMethod), "payment method must be one of cash, mobile_money, credit, online")
	if err := v.Err(); err != nil {
		return err
	}
	return ValidateItems(req.Items)
}

// requireActiveCustomer refuses soft-deleted customers at the till
func requireActiveCustomer(c *models.Customer) error {
	if c.DeletedAt != nil {
		return invalid("customer %d has been deleted", c.ID)
	}
	return nil
}

// Projection previews the empties effect of a cart without writing anything
func (s *OrderService) Projection(ctx context.Context, req *models.ProjectionRequest) (*models.EmptiesProjection, error) {
	if req.CustomerID <= 0 {
		return nil, invalid("customer is required")
	}
	customer, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := requireActiveCustomer(customer); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return Project(customer, 0), nil
	}
	if err := ValidateItems(req.Items); err != nil {
		return nil, err
	}

	products, err := s.ProductRepo.GetMany(ctx, ItemIDs(req.Items))
	if err != nil {
		return nil, err
	}
	plan, err := PlanCheckout(customer.PriceTier, req.Items, products)
	if err != nil {
		return nil, err
	}
	return Project(customer, plan.ReturnableQuantity), nil
}

// Checkout creates a pending order with its sales and, for returnable
// products, the matching empties movement.
func (s *OrderService) Checkout(ctx context.Context, req *models.CheckoutRequest, userID int) (*models.CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	var result *models.CheckoutResult
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		customers := s.CustomerRepo.WithTx(tx)

		customer, err := customers.GetForUpdate(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if err := requireActiveCustomer(customer); err != nil {
			return err
		}

		products, err := s.ProductRepo.WithTx(tx).GetMany(ctx, ItemIDs(req.Items))
		if err != nil {
			return err
		}
		plan, err := PlanCheckout(customer.PriceTier, req.Items, products)
		if err != nil {
			return err
		}

		projection := Project(customer, plan.ReturnableQuantity)
		if !projection.Allowed {
			return ErrInsufficientEmpties
		}

		order := &models.Order{
			CustomerID:      customer.ID,
			CustomerName:    customer.Name,
			TotalAmount:     plan.Total,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   models.PaymentUnpaid,
			Status:          models.OrderPending,
			CreatedByUserID: userID,
		}
		orders := s.OrderRepo.WithTx(tx)
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		for i := range plan.Sales {
			plan.Sales[i].OrderID = order.ID
			if err := orders.CreateSale(ctx, &plan.Sales[i]); err != nil {
				return err
			}
		}
		order.Sales = plan.Sales

		if plan.ReturnableQuantity > 0 {
			balance, err := customers.AdjustBalance(ctx, customer.ID, -plan.ReturnableQuantity)
			if errors.Is(err, repositories.ErrConflict) {
				return ErrInsufficientEmpties
			}
			if err != nil {
				return err
			}
			orderID := order.ID
			entry := &models.EmptiesLog{
				CustomerID:      customer.ID,
				OrderID:         &orderID,
				EntryType:       models.EmptiesSale,
				TotalQuantity:   -plan.ReturnableQuantity,
				BalanceAfter:    balance,
				Notes:           "POS sale",
				CreatedByUserID: userID,
				Details:         plan.EmptiesDetails,
			}
			if err := s.EmptiesRepo.WithTx(tx).Create(ctx, entry); err != nil {
				return err
			}
		}

		result = &models.CheckoutResult{Order: order, Projection: projection}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCheckedOut.WithLabelValues(req.PaymentMethod).Inc()
	if result.Projection.ReturnableQuantity > 0 {
		metrics.EmptiesMovements.WithLabelValues(models.EmptiesSale).Inc()
	}
	cache.InvalidateOrderCaches(ctx)
	cache.InvalidateCustomerCaches(ctx)
	s.log.Info("order checked out",
		zap.Int("order_id", result.Order.ID),
		zap.Int("customer_id", req.CustomerID),
		zap.String("total", result.Order.TotalAmount.StringFixed(2)),
	)
	return result, nil
}

// Approve hands a pending order to the warehouse
func (s *OrderService) Approve(ctx context.Context, orderID, userID int) (*models.WarehouseOrder, error) {
	var wo *models.WarehouseOrder
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		orders := s.OrderRepo.WithTx(tx)

		order, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := CanApprove(order.Status); err != nil {
			return err
		}
		if err := orders.Approve(ctx, orderID, userID); err != nil {
			return conflictAsTransition(err, "order changed while approving")
		}

		sales, err := orders.GetSales(ctx, orderID)
		if err != nil {
			return err
		}

		warehouse := s.WarehouseRepo.WithTx(tx)
		wo = &models.WarehouseOrder{OrderID: orderID, CustomerName: order.CustomerName, Status: models.WarehousePending}
		if err := warehouse.Create(ctx, wo); err != nil {
			return err
		}
		for _, sale := range sales {
			item := models.WarehouseOrderItem{
				WarehouseOrderID: wo.ID,
				ProductID:        sale.ProductID,
				ProductSKU:       sale.ProductSKU,
				ProductName:      sale.ProductName,
				Quantity:         sale.Quantity,
			}
			if err := warehouse.AddItem(ctx, &item); err != nil {
				return err
			}
			wo.Items = append(wo.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues("order", models.OrderApproved).Inc()
	cache.InvalidateOrderCaches(ctx)
	s.publish(models.EventWarehouseOrderCreated, wo)
	return wo, nil
}

// MarkReady dispatches a warehouse order and takes its items out of stock
func (s *OrderService) MarkReady(ctx context.Context, warehouseOrderID, userID int) (*models.WarehouseOrder, error) {
	var wo *models.WarehouseOrder
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		warehouse := s.WarehouseRepo.WithTx(tx)

		var err error
		wo, err = warehouse.GetForUpdate(ctx, warehouseOrderID)
		if err != nil {
			return err
		}
		if err := CanMarkReady(wo.Status); err != nil {
			return err
		}

		wo.Items, err = warehouse.GetItems(ctx, wo.ID)
		if err != nil {
			return err
		}

		products := s.ProductRepo.WithTx(tx)
		for _, item := range wo.Items {
			if _, err := products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				if errors.Is(err, repositories.ErrConflict) {
					return insufficientStock(item.ProductSKU)
				}
				return err
			}
		}

		if err := warehouse.MarkReady(ctx, wo.ID, userID); err != nil {
			return conflictAsTransition(err, "warehouse order changed while dispatching")
		}
		wo.Status = models.WarehouseReady
		now := time.Now()
		wo.ReadyAt = &now
		wo.ProcessedByUserID = &userID
		return nil
	})
	if err != nil {
		return nil, err
	}

	units := 0
	for _, item := range wo.Items {
		units += item.Quantity
	}
	metrics.StockMovements.WithLabelValues("dispatch").Add(float64(units))
	metrics.OrderTransitions.WithLabelValues("warehouse_order", models.WarehouseReady).Inc()
	cache.InvalidateProductCaches(ctx)
	s.publish(models.EventWarehouseOrderReady, wo)
	return wo, nil
}

// CancelOrder cancels an order (and its warehouse order, if any) and returns
// the sale's crates to the customer's balance.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int, reason string, userID int) (*models.Order, error) {
	reason = strings.TrimSpace(reason)

	var order *models.Order
	var wo *models.WarehouseOrder
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		orders := s.OrderRepo.WithTx(tx)
		warehouse := s.WarehouseRepo.WithTx(tx)

		var err error
		order, err = orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		woStatus := ""
		wo, err = warehouse.GetByOrderID(ctx, orderID)
		switch {
		case err == nil:
			woStatus = wo.Status
		case errors.Is(err, repositories.ErrNotFound):
			wo = nil
		default:
			return err
		}

		if err := CanCancel(order.Status, woStatus); err != nil {
			return err
		}
		if err := orders.Cancel(ctx, orderID, reason, models.OrderPending, models.OrderApproved); err != nil {
			return conflictAsTransition(err, "order changed while cancelling")
		}
		if wo != nil {
			if err := warehouse.Cancel(ctx, wo.ID, userID); err != nil {
				return conflictAsTransition(err, "warehouse order changed while cancelling")
			}
			wo.Status = models.WarehouseCancelled
		}

		return s.reverseEmpties(ctx, tx, order, userID)
	})
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderCancelled
	order.CancelReason = reason
	metrics.OrderTransitions.WithLabelValues("order", models.OrderCancelled).Inc()
	cache.InvalidateOrderCaches(ctx)
	cache.InvalidateCustomerCaches(ctx)

	if wo != nil {
		s.publish(models.EventWarehouseOrderCancelled, wo)
	} else {
		s.publish(models.EventOrderCancelled, &models.WarehouseOrder{OrderID: order.ID, Status: models.OrderCancelled})
	}
	return order, nil
}

// CancelWarehouseOrder is the warehouse-side entry to the same cancellation
func (s *OrderService) CancelWarehouseOrder(ctx context.Context, warehouseOrderID int, reason string, userID int) (*models.Order, error) {
	wo, err := s.WarehouseRepo.Get(ctx, warehouseOrderID)
	if err != nil {
		return nil, err
	}
	return s.CancelOrder(ctx, wo.OrderID, reason, userID)
}

// reverseEmpties books a reversal for whatever the order still holds
func (s *OrderService) reverseEmpties(ctx context.Context, tx pgx.Tx, order *models.Order, userID int) error {
	empties := s.EmptiesRepo.WithTx(tx)

	net, err := empties.NetForOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if net >= 0 {
		return nil
	}

	details, err := empties.DetailsForOrderSale(ctx, order.ID)
	if err != nil {
		return err
	}
	// a credit cannot break the balance rule, so deleted customers still get it
	balance, err := s.CustomerRepo.WithTx(tx).CreditBalance(ctx, order.CustomerID, -net)
	if err != nil {
		return err
	}

	orderID := order.ID
	entry := &models.EmptiesLog{
		CustomerID:      order.CustomerID,
		OrderID:         &orderID,
		EntryType:       models.EmptiesReversal,
		TotalQuantity:   -net,
		BalanceAfter:    balance,
		Notes:           "order cancelled",
		CreatedByUserID: userID,
		Details:         details,
	}
	if err := empties.Create(ctx, entry); err != nil {
		return err
	}
	metrics.EmptiesMovements.WithLabelValues(models.EmptiesReversal).Inc()
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	order, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Sales, err = s.OrderRepo.GetSales(ctx, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	return s.OrderRepo.List(ctx, f)
}

func (s *OrderService) GetWarehouseOrder(ctx context.Context, id int) (*models.WarehouseOrder, error) {
	wo, err := s.WarehouseRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wo.Items, err = s.WarehouseRepo.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *OrderService) ListWarehouseOrders(ctx context.Context, status string) ([]*models.WarehouseOrder, error) {
	switch status {
	case "", models.WarehousePending, models.WarehouseReady, models.WarehouseCancelled:
	default:
		return nil, invalid("unknown status %q", status)
	}
	return s.WarehouseRepo.List(ctx, status)
}

func (s *OrderService) publish(eventType string, wo *models.WarehouseOrder) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Broadcast(models.WarehouseEvent{
		Type:             eventType,
		WarehouseOrderID: wo.ID,
		OrderID:          wo.OrderID,
		Status:           wo.Status,
		At:               time.Now(),
	})
}

func conflictAsTransition(err error, msg string) error {
	if errors.Is(err, repositories.ErrConflict) {
		return transition("%s", msg)
	}
	return err
}
