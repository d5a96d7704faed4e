package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"depot-backend/internal/cache"
	"depot-backend/internal/db"
	"depot-backend/internal/metrics"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/internal/storage"
	"depot-backend/internal/timeutil"
)

// ImageStore holds purchase-order images
type ImageStore interface {
	Enabled() bool
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
}

// InventoryService moves stock in (receivables) and out (loadouts, breakages)
type InventoryService struct {
	DB          db.TxStarter
	Repo        *repositories.InventoryRepository
	ProductRepo *repositories.ProductRepository
	Images      ImageStore
	log         *zap.Logger
}

func NewInventoryService(pool db.TxStarter, repo *repositories.InventoryRepository,
	productRepo *repositories.ProductRepository, images ImageStore, log *zap.Logger) *InventoryService {
	return &InventoryService{DB: pool, Repo: repo, ProductRepo: productRepo, Images: images, log: log}
}

// parseFormDate reads an optional YYYY-MM-DD field, defaulting to today
func parseFormDate(value, field string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return timeutil.StartOfDay(timeutil.Now()), nil
	}
	d, err := timeutil.ParseDate(value)
	if err != nil {
		return time.Time{}, invalid("%s must be a date (YYYY-MM-DD)", field)
	}
	return d, nil
}

func (s *InventoryService) CreateReceivable(ctx context.Context, req *models.ReceivableRequest, userID int) (*models.InventoryReceivable, error) {
	v := &validator{}
	v.check(strings.TrimSpace(req.SupplierName) != "", "supplier name is required")
	items := make([]models.ItemQuantity, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.ItemQuantity{ProductID: it.ProductID, Quantity: it.Quantity}
		v.check(!it.UnitCost.IsNegative(), "item %d: unit cost cannot be negative", i+1)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	receivedAt, err := parseFormDate(req.ReceivedAt, "received date")
	if err != nil {
		return nil, err
	}

	rec := &models.InventoryReceivable{
		SupplierName:    strings.TrimSpace(req.SupplierName),
		ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
		ReceivedAt:      receivedAt,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedByUserID: userID,
	}
	for _, it := range req.Items {
		rec.Items = append(rec.Items, models.InventoryReceivableItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost.Round(2),
		})
	}

	units, err := s.moveStock(ctx, items, 1, func(tx pgx.Tx) error {
		return s.Repo.WithTx(tx).CreateReceivable(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues("receivable").Add(float64(units))
	return rec, nil
}

func (s *InventoryService) CreateLoadout(ctx context.Context, req *models.LoadoutRequest, userID int) (*models.Loadout, error) {
	if strings.TrimSpace(req.VSEName) == "" {
		return nil, invalid("VSE name is required")
	}
	if err := ValidateItems(req.Items); err != nil {
		return nil, err
	}
	date, err := parseFormDate(req.LoadoutDate, "loadout date")
	if err != nil {
		return nil, err
	}

	l := &models.Loadout{
		VSEName:         strings.TrimSpace(req.VSEName),
		CustomerID:      req.CustomerID,
		LoadoutDate:     date,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedByUserID: userID,
	}
	for _, it := range req.Items {
		l.Items = append(l.Items, models.LoadoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	units, err := s.moveStock(ctx, req.Items, -1, func(tx pgx.Tx) error {
		return s.Repo.WithTx(tx).CreateLoadout(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues("loadout").Add(float64(units))
	return l, nil
}

func (s *InventoryService) CreateBreakage(ctx context.Context, req *models.BreakageRequest, userID int) (*models.Breakage, error) {
	v := &validator{}
	v.check(req.ProductID > 0, "product is required")
	v.check(req.Quantity > 0, "quantity must be greater than zero")
	v.check(strings.TrimSpace(req.Reason) != "", "reason is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	b := &models.Breakage{
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		Reason:           strings.TrimSpace(req.Reason),
		ReportedByUserID: userID,
	}
	items := []models.ItemQuantity{{ProductID: req.ProductID, Quantity: req.Quantity}}
	units, err := s.moveStock(ctx, items, -1, func(tx pgx.Tx) error {
		return s.Repo.WithTx(tx).CreateBreakage(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues("breakage").Add(float64(units))
	return b, nil
}

// moveStock applies sign*quantity to every item and runs record in the same
// transaction. It returns the number of units moved.
func (s *InventoryService) moveStock(ctx context.Context, items []models.ItemQuantity, sign int, record func(tx pgx.Tx) error) (int, error) {
	units := 0
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		products := s.ProductRepo.WithTx(tx)
		found, err := products.GetMany(ctx, ItemIDs(items))
		if err != nil {
			return err
		}

		for _, it := range items {
			p, ok := found[it.ProductID]
			if !ok || !p.Active() {
				return invalid("product %d is not available", it.ProductID)
			}
			if _, err := products.AdjustStock(ctx, it.ProductID, sign*it.Quantity); err != nil {
				if errors.Is(err, repositories.ErrConflict) {
					return insufficientStock(p.SKU)
				}
				return err
			}
			units += it.Quantity
		}
		return record(tx)
	})
	if err != nil {
		return 0, err
	}
	cache.InvalidateProductCaches(ctx)
	return units, nil
}

func (s *InventoryService) GetReceivable(ctx context.Context, id int) (*models.InventoryReceivable, error) {
	return s.Repo.GetReceivable(ctx, id)
}

func (s *InventoryService) ListReceivables(ctx context.Context, r models.DateRange) ([]*models.InventoryReceivable, error) {
	return s.Repo.ListReceivables(ctx, r.From, r.To)
}

func (s *InventoryService) GetLoadout(ctx context.Context, id int) (*models.Loadout, error) {
	return s.Repo.GetLoadout(ctx, id)
}

func (s *InventoryService) ListLoadouts(ctx context.Context, r models.DateRange) ([]*models.Loadout, error) {
	return s.Repo.ListLoadouts(ctx, r.From, r.To)
}

func (s *InventoryService) ListBreakages(ctx context.Context, r models.DateRange) ([]*models.Breakage, error) {
	return s.Repo.ListBreakages(ctx, r.From, r.To)
}

// UploadReceivableImage stores the purchase-order image and links it to the receivable
func (s *InventoryService) UploadReceivableImage(ctx context.Context, id int, body io.Reader, size int64, contentType, filename string) (*models.InventoryReceivable, error) {
	if s.Images == nil || !s.Images.Enabled() {
		return nil, ErrStorageDisabled
	}
	if size <= 0 || size > storage.MaxImageBytes {
		return nil, invalid("image must be between 1 byte and 10 MiB")
	}
	ext, ok := storage.ImageExtension(contentType, filename)
	if !ok {
		return nil, invalid("only image uploads are accepted")
	}

	rec, err := s.Repo.GetReceivable(ctx, id)
	if err != nil {
		return nil, err
	}

	key := storage.ReceivableImageKey(id, ext)
	if err := s.Images.Put(ctx, key, body, size, contentType); err != nil {
		return nil, err
	}
	if err := s.Repo.SetReceivableImage(ctx, id, key); err != nil {
		if delErr := s.Images.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphaned receivable image", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	if rec.ImageKey != "" {
		if err := s.Images.Delete(ctx, rec.ImageKey); err != nil {
			s.log.Warn("failed to remove replaced image", zap.String("key", rec.ImageKey), zap.Error(err))
		}
	}

	rec.ImageKey = key
	return rec, nil
}

// ReceivableImageURL returns a presigned link to the receivable's image
func (s *InventoryService) ReceivableImageURL(ctx context.Context, id int) (string, time.Time, error) {
	if s.Images == nil || !s.Images.Enabled() {
		return "", time.Time{}, ErrStorageDisabled
	}
	rec, err := s.Repo.GetReceivable(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if rec.ImageKey == "" {
		return "", time.Time{}, ErrNotFound
	}
	return s.Images.PresignGet(ctx, rec.ImageKey)
}

// ReceivableValue totals quantity × unit cost
func ReceivableValue(rec *models.InventoryReceivable) decimal.Decimal {
	total := decimal.Zero
	for _, it := range rec.Items {
		total = total.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}
