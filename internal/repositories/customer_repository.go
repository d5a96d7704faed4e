package repositories

import (
	"context"
	"fmt"
	"strings"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	DB DBTX
}

func NewCustomerRepository(db DBTX) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

// WithTx returns a copy bound to tx
func (r *CustomerRepository) WithTx(tx pgx.Tx) *CustomerRepository {
	return &CustomerRepository{DB: tx}
}

const customerSelect = `
	SELECT c.id, c.name, c.phone, c.address, c.customer_type_id,
	       COALESCE(ct.name, ''), COALESCE(ct.price_tier, ''),
	       c.crate_balance, c.mou_signed, c.deleted_at, c.created_at, c.updated_at
	FROM customers c
	LEFT JOIN customer_types ct ON ct.id = c.customer_type_id`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CustomerTypeID,
		&c.CustomerType, &c.PriceTier, &c.CrateBalance, &c.MOUSigned,
		&c.DeletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO customers(name, phone, address, customer_type_id)
         VALUES($1, $2, $3, $4)
         RETURNING id, crate_balance, mou_signed, created_at, updated_at`,
		c.Name, c.Phone, c.Address, c.CustomerTypeID,
	).Scan(&c.ID, &c.CrateBalance, &c.MOUSigned, &c.CreatedAt, &c.UpdatedAt))
}

func (r *CustomerRepository) Get(ctx context.Context, id int) (*models.Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx, customerSelect+` WHERE c.id=$1`, id))
}

// GetForUpdate locks the customer row for the rest of the transaction
func (r *CustomerRepository) GetForUpdate(ctx context.Context, id int) (*models.Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx, customerSelect+` WHERE c.id=$1 FOR UPDATE OF c`, id))
}

func (r *CustomerRepository) List(ctx context.Context, f models.CustomerFilter) ([]*models.Customer, error) {
	var where []string
	var args []interface{}

	if !f.IncludeDeleted {
		where = append(where, "c.deleted_at IS NULL")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(c.name ILIKE $%d OR c.phone ILIKE $%d)", len(args), len(args)))
	}
	if f.CustomerTypeID > 0 {
		args = append(args, f.CustomerTypeID)
		where = append(where, fmt.Sprintf("c.customer_type_id = $%d", len(args)))
	}

	query := customerSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.name"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customers SET name=$1, phone=$2, address=$3, customer_type_id=$4, updated_at=NOW()
         WHERE id=$5 AND deleted_at IS NULL`,
		c.Name, c.Phone, c.Address, c.CustomerTypeID, c.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) SoftDelete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customers SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMOU flips the MOU flag. Revoking it is refused while the balance is negative.
func (r *CustomerRepository) SetMOU(ctx context.Context, id int, signed bool) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE customers SET mou_signed=$1, updated_at=NOW()
         WHERE id=$2 AND deleted_at IS NULL AND ($1 OR crate_balance >= 0)`,
		signed, id))
}

// AdjustBalance adds delta to the crate balance and returns the new balance.
// A decrease that would go below zero without an MOU matches no row and
// returns ErrConflict.
func (r *CustomerRepository) AdjustBalance(ctx context.Context, id, delta int) (int, error) {
	var balance int
	err := r.DB.QueryRow(ctx,
		`UPDATE customers SET crate_balance = crate_balance + $1, updated_at=NOW()
         WHERE id=$2 AND deleted_at IS NULL AND (mou_signed OR crate_balance + $1 >= 0)
         RETURNING crate_balance`,
		delta, id,
	).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, ErrConflict
	}
	return balance, err
}

// CreditBalance gives crates back to a customer, soft-deleted or not, and
// returns the new balance. delta must be positive.
func (r *CustomerRepository) CreditBalance(ctx context.Context, id, delta int) (int, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("credit of %d crates must be positive", delta)
	}
	var balance int
	err := r.DB.QueryRow(ctx,
		`UPDATE customers SET crate_balance = crate_balance + $1, updated_at=NOW()
         WHERE id=$2
         RETURNING crate_balance`,
		delta, id,
	).Scan(&balance)
	if err != nil {
		return 0, mapErr(err)
	}
	return balance, nil
}

// ListBalances returns customers holding crates, largest first
func (r *CustomerRepository) ListBalances(ctx context.Context, nonZeroOnly bool) ([]*models.CrateBalance, error) {
	query := `SELECT id, name, phone, crate_balance, mou_signed FROM customers WHERE deleted_at IS NULL`
	if nonZeroOnly {
		query += ` AND crate_balance <> 0`
	}
	query += ` ORDER BY crate_balance DESC, name`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := []*models.CrateBalance{}
	for rows.Next() {
		var b models.CrateBalance
		if err := rows.Scan(&b.CustomerID, &b.CustomerName, &b.Phone, &b.CrateBalance, &b.MOUSigned); err != nil {
			return nil, err
		}
		balances = append(balances, &b)
	}
	return balances, rows.Err()
}

// OutstandingCrates is the number of crates owed by customers trading on an MOU
func (r *CustomerRepository) OutstandingCrates(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(-SUM(crate_balance), 0) FROM customers WHERE deleted_at IS NULL AND crate_balance < 0`,
	).Scan(&total)
	return total, err
}
