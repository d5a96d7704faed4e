package repositories

import (
	"context"

	"depot-backend/internal/models"
)

type CustomerTypeRepository struct {
	DB DBTX
}

func NewCustomerTypeRepository(db DBTX) *CustomerTypeRepository {
	return &CustomerTypeRepository{DB: db}
}

func (r *CustomerTypeRepository) List(ctx context.Context) ([]*models.CustomerType, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, price_tier, created_at FROM customer_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []*models.CustomerType{}
	for rows.Next() {
		var t models.CustomerType
		if err := rows.Scan(&t.ID, &t.Name, &t.PriceTier, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, &t)
	}
	return types, rows.Err()
}

func (r *CustomerTypeRepository) Get(ctx context.Context, id int) (*models.CustomerType, error) {
	var t models.CustomerType
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, price_tier, created_at FROM customer_types WHERE id=$1`, id,
	).Scan(&t.ID, &t.Name, &t.PriceTier, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *CustomerTypeRepository) Create(ctx context.Context, t *models.CustomerType) error {
	return mapErr(r.DB.QueryRow(ctx,
		`INSERT INTO customer_types(name, price_tier) VALUES($1, $2) RETURNING id, created_at`,
		t.Name, t.PriceTier,
	).Scan(&t.ID, &t.CreatedAt))
}

func (r *CustomerTypeRepository) Update(ctx context.Context, t *models.CustomerType) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customer_types SET name=$1, price_tier=$2 WHERE id=$3`, t.Name, t.PriceTier, t.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
