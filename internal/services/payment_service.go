package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"depot-backend/internal/cache"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
)

// gatewayOrders is the part of the Razorpay client used here
type gatewayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentService opens gateway orders for online checkouts and verifies the
// signed callback before marking the order paid.
type PaymentService struct {
	OrderRepo *repositories.OrderRepository
	keyID     string
	keySecret string
	currency  string
	orders    gatewayOrders
	log       *zap.Logger
}

func NewPaymentService(orderRepo *repositories.OrderRepository, keyID, keySecret, currency string, log *zap.Logger) *PaymentService {
	s := &PaymentService{
		OrderRepo: orderRepo,
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
		log:       log,
	}
	if keyID != "" && keySecret != "" {
		s.orders = razorpay.NewClient(keyID, keySecret).Order
	}
	return s
}

// Enabled reports whether gateway keys are configured
func (s *PaymentService) Enabled() bool {
	return s.orders != nil
}

// MinorUnits converts an amount to the gateway's smallest currency unit
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateLink creates the gateway order for an unpaid online order
func (s *PaymentService) CreateLink(ctx context.Context, orderID int) (*models.PaymentLink, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	order, err := s.OrderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.PaymentMethod != models.PaymentOnline:
		return nil, invalid("order %d is not an online payment order", order.ID)
	case order.Status == models.OrderCancelled:
		return nil, transition("order %d is cancelled", order.ID)
	case order.PaymentStatus == models.PaymentPaid:
		return nil, transition("order %d is already paid", order.ID)
	}

	amount := MinorUnits(order.TotalAmount)
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	gatewayOrder, err := s.orders.Create(map[string]interface{}{
		"amount":   amount,
		"currency": s.currency,
		"receipt":  receipt,
		"notes": map[string]interface{}{
			"order_id":    order.ID,
			"customer_id": order.CustomerID,
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}
	gatewayID, _ := gatewayOrder["id"].(string)
	if gatewayID == "" {
		return nil, errors.New("gateway order has no id")
	}

	if err := s.OrderRepo.SetPaymentReference(ctx, order.ID, gatewayID); err != nil {
		return nil, err
	}
	s.log.Info("gateway order created", zap.Int("order_id", order.ID), zap.String("gateway_order_id", gatewayID))

	return &models.PaymentLink{
		OrderID:        order.ID,
		GatewayOrderID: gatewayID,
		KeyID:          s.keyID,
		Amount:         order.TotalAmount,
		AmountMinor:    amount,
		Currency:       s.currency,
		Receipt:        receipt,
	}, nil
}

// Verify checks the callback signature and marks the order paid
func (s *PaymentService) Verify(ctx context.Context, req *models.PaymentVerifyRequest) (*models.Order, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	if req.OrderID <= 0 || req.GatewayOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, invalid("order_id, razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	if !VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature, s.keySecret) {
		s.log.Warn("payment signature mismatch", zap.Int("order_id", req.OrderID))
		return nil, invalid("payment signature is invalid")
	}

	order, err := s.OrderRepo.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentReference != req.GatewayOrderID {
		return nil, invalid("payment does not belong to order %d", order.ID)
	}
	if err := s.OrderRepo.MarkPaid(ctx, order.ID, req.PaymentID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, transition("order %d is already paid or cancelled", order.ID)
		}
		return nil, err
	}
	cache.InvalidateOrderCaches(ctx)

	return s.OrderRepo.Get(ctx, order.ID)
}

// VerifySignature checks HMAC-SHA256("<order_id>|<payment_id>") against the hex signature
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
