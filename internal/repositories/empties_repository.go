package repositories

import (
	"context"
	"fmt"
	"strings"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type EmptiesRepository struct {
	DB DBTX
}

func NewEmptiesRepository(db DBTX) *EmptiesRepository {
	return &EmptiesRepository{DB: db}
}

// WithTx returns a copy bound to tx
func (r *EmptiesRepository) WithTx(tx pgx.Tx) *EmptiesRepository {
	return &EmptiesRepository{DB: tx}
}

const emptiesSelect = `
	SELECT e.id, e.customer_id, c.name, e.order_id, e.entry_type, e.total_quantity,
	       e.balance_after, e.notes, e.created_by_user_id, e.created_at
	FROM empties_log e
	JOIN customers c ON c.id = e.customer_id`

func scanEmptiesLog(row pgx.Row) (*models.EmptiesLog, error) {
	var e models.EmptiesLog
	err := row.Scan(&e.ID, &e.CustomerID, &e.CustomerName, &e.OrderID, &e.EntryType,
		&e.TotalQuantity, &e.BalanceAfter, &e.Notes, &e.CreatedByUserID, &e.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

// Create inserts the entry and its details
func (r *EmptiesRepository) Create(ctx context.Context, e *models.EmptiesLog) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO empties_log(customer_id, order_id, entry_type, total_quantity, balance_after, notes, created_by_user_id)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at`,
		e.CustomerID, e.OrderID, e.EntryType, e.TotalQuantity, e.BalanceAfter, e.Notes, e.CreatedByUserID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return mapErr(err)
	}

	for i := range e.Details {
		d := &e.Details[i]
		d.EmptiesLogID = e.ID
		if err := r.DB.QueryRow(ctx,
			`INSERT INTO empties_log_details(empties_log_id, product_id, quantity)
             VALUES($1, $2, $3) RETURNING id`,
			d.EmptiesLogID, d.ProductID, d.Quantity,
		).Scan(&d.ID); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *EmptiesRepository) Get(ctx context.Context, id int) (*models.EmptiesLog, error) {
	e, err := scanEmptiesLog(r.DB.QueryRow(ctx, emptiesSelect+` WHERE e.id=$1`, id))
	if err != nil {
		return nil, err
	}
	e.Details, err = r.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EmptiesRepository) GetDetails(ctx context.Context, logID int) ([]models.EmptiesLogDetail, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT d.id, d.empties_log_id, d.product_id, p.name, d.quantity
         FROM empties_log_details d
         JOIN products p ON p.id = d.product_id
         WHERE d.empties_log_id=$1
         ORDER BY d.id`, logID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []models.EmptiesLogDetail{}
	for rows.Next() {
		var d models.EmptiesLogDetail
		if err := rows.Scan(&d.ID, &d.EmptiesLogID, &d.ProductID, &d.ProductName, &d.Quantity); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *EmptiesRepository) List(ctx context.Context, f models.EmptiesLogFilter) ([]*models.EmptiesLog, error) {
	var where []string
	var args []interface{}

	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("e.customer_id = $%d", len(args)))
	}
	if f.EntryType != "" {
		args = append(args, f.EntryType)
		where = append(where, fmt.Sprintf("e.entry_type = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("e.created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("e.created_at <= $%d", len(args)))
	}

	query := emptiesSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.created_at DESC LIMIT 500"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.EmptiesLog{}
	for rows.Next() {
		e, err := scanEmptiesLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// NetForOrder sums every movement tied to an order. A sale followed by its
// reversal nets to zero, which is how double reversal is prevented.
func (r *EmptiesRepository) NetForOrder(ctx context.Context, orderID int) (int, error) {
	var net int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_quantity), 0) FROM empties_log WHERE order_id=$1`, orderID).Scan(&net)
	return net, err
}

// DetailsForOrderSale returns the per-product quantities of an order's sale entry
func (r *EmptiesRepository) DetailsForOrderSale(ctx context.Context, orderID int) ([]models.EmptiesLogDetail, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT d.product_id, d.quantity
         FROM empties_log_details d
         JOIN empties_log e ON e.id = d.empties_log_id
         WHERE e.order_id=$1 AND e.entry_type='sale'
         ORDER BY d.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []models.EmptiesLogDetail{}
	for rows.Next() {
		var d models.EmptiesLogDetail
		if err := rows.Scan(&d.ProductID, &d.Quantity); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
