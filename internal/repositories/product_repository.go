package repositories

import (
	"context"
	"fmt"
	"strings"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	DB DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{DB: db}
}

// WithTx returns a copy bound to tx
func (r *ProductRepository) WithTx(tx pgx.Tx) *ProductRepository {
	return &ProductRepository{DB: tx}
}

const productColumns = `id, sku, name, wholesale_price, retail_price, is_returnable,
	stock_quantity, reorder_level, deleted_at, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.WholesalePrice, &p.RetailPrice, &p.IsReturnable,
		&p.StockQuantity, &p.ReorderLevel, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO products(sku, name, wholesale_price, retail_price, is_returnable, stock_quantity, reorder_level)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at, updated_at`,
		p.SKU, p.Name, p.WholesalePrice, p.RetailPrice, p.IsReturnable, p.StockQuantity, p.ReorderLevel,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt))
}

func (r *ProductRepository) Get(ctx context.Context, id int) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku=$1`, sku))
}

// GetMany loads the given ids, soft-deleted rows included, keyed by id
func (r *ProductRepository) GetMany(ctx context.Context, ids []int) (map[int]*models.Product, error) {
	found := make(map[int]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		found[p.ID] = p
	}
	return found, rows.Err()
}

func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]*models.Product, error) {
	var where []string
	var args []interface{}

	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if f.ReturnableOnly {
		where = append(where, "is_returnable")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET sku=$1, name=$2, wholesale_price=$3, retail_price=$4, is_returnable=$5,
                reorder_level=$6, updated_at=NOW()
         WHERE id=$7 AND deleted_at IS NULL`,
		p.SKU, p.Name, p.WholesalePrice, p.RetailPrice, p.IsReturnable, p.ReorderLevel, p.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert inserts or updates by SKU and restores soft-deleted rows. Stock is
// only set on insert so a re-import never clobbers live counts.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) (created bool, err error) {
	err = r.DB.QueryRow(ctx,
		`INSERT INTO products(sku, name, wholesale_price, retail_price, is_returnable, stock_quantity, reorder_level)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         ON CONFLICT (sku) DO UPDATE SET
            name=EXCLUDED.name,
            wholesale_price=EXCLUDED.wholesale_price,
            retail_price=EXCLUDED.retail_price,
            is_returnable=EXCLUDED.is_returnable,
            reorder_level=EXCLUDED.reorder_level,
            deleted_at=NULL,
            updated_at=NOW()
         RETURNING id, (xmax = 0)`,
		p.SKU, p.Name, p.WholesalePrice, p.RetailPrice, p.IsReturnable, p.StockQuantity, p.ReorderLevel,
	).Scan(&p.ID, &created)
	return created, mapErr(err)
}

// AdjustStock adds delta to stock_quantity. A decrease past zero matches no
// row and returns ErrConflict.
func (r *ProductRepository) AdjustStock(ctx context.Context, id, delta int) (int, error) {
	var stock int
	err := r.DB.QueryRow(ctx,
		`UPDATE products SET stock_quantity = stock_quantity + $1, updated_at=NOW()
         WHERE id=$2 AND stock_quantity + $1 >= 0
         RETURNING stock_quantity`,
		delta, id,
	).Scan(&stock)
	if err == pgx.ErrNoRows {
		return 0, ErrConflict
	}
	return stock, err
}

// LowStock lists active products at or below their reorder level
func (r *ProductRepository) LowStock(ctx context.Context) ([]models.StockReportRow, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, sku, name, stock_quantity, reorder_level FROM products
         WHERE deleted_at IS NULL AND stock_quantity <= reorder_level
         ORDER BY stock_quantity, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	low := []models.StockReportRow{}
	for rows.Next() {
		var row models.StockReportRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.CurrentStock, &row.ReorderLevel); err != nil {
			return nil, err
		}
		low = append(low, row)
	}
	return low, rows.Err()
}
