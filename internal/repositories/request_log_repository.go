package repositories

import (
	"context"
	"fmt"
	"strings"

	"depot-backend/internal/models"
)

type RequestLogRepository struct {
	DB DBTX
}

func NewRequestLogRepository(db DBTX) *RequestLogRepository {
	return &RequestLogRepository{DB: db}
}

func (r *RequestLogRepository) Insert(ctx context.Context, e *models.RequestLog) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO request_logs(method, path, status, duration_ms, user_id, user_email, ip_address, user_agent, created_at)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.Method, e.Path, e.Status, e.DurationMs, e.UserID, e.UserEmail, e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

func (r *RequestLogRepository) List(ctx context.Context, f models.RequestLogFilter) ([]*models.RequestLog, error) {
	var where []string
	var args []interface{}

	if f.UserID > 0 {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Path != "" {
		args = append(args, f.Path+"%")
		where = append(where, fmt.Sprintf("path LIKE $%d", len(args)))
	}
	if f.MinStatus > 0 {
		args = append(args, f.MinStatus)
		where = append(where, fmt.Sprintf("status >= $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, method, path, status, duration_ms, user_id, user_email, ip_address, user_agent, created_at
              FROM request_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.RequestLog{}
	for rows.Next() {
		var l models.RequestLog
		if err := rows.Scan(&l.ID, &l.Method, &l.Path, &l.Status, &l.DurationMs, &l.UserID,
			&l.UserEmail, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
