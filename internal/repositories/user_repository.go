package repositories

import (
	"context"

	"depot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	DB DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, password_hash, role, is_active, totp_secret, totp_enabled,
	deleted_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TOTPSecret, &u.TOTPEnabled, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, password_hash, role, is_active)
         VALUES($1, LOWER($2), $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=LOWER($1) AND deleted_at IS NULL`, email))
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET name=$1, email=LOWER($2), role=$3, updated_at=NOW()
         WHERE id=$4 AND deleted_at IS NULL`,
		u.Name, u.Email, u.Role, u.ID))
}

func (r *UserRepository) SetPassword(ctx context.Context, id int, hash string) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id))
}

func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET is_active=$1, updated_at=NOW() WHERE id=$2 AND deleted_at IS NULL`, active, id))
}

// SoftDelete deactivates the account and hides it from listings
func (r *UserRepository) SoftDelete(ctx context.Context, id int) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET deleted_at=NOW(), is_active=FALSE, updated_at=NOW()
         WHERE id=$1 AND deleted_at IS NULL`, id))
}

// CountActiveAdmins guards against locking everyone out
func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role='admin' AND is_active AND deleted_at IS NULL`).Scan(&n)
	return n, err
}

func (r *UserRepository) SetTOTPSecret(ctx context.Context, id int, secret string) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET totp_secret=$1, totp_enabled=FALSE, updated_at=NOW() WHERE id=$2`, secret, id))
}

func (r *UserRepository) EnableTOTP(ctx context.Context, id int) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=TRUE, updated_at=NOW() WHERE id=$1 AND totp_secret <> ''`, id))
}

func (r *UserRepository) DisableTOTP(ctx context.Context, id int) error {
	return requireRow(r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=FALSE, totp_secret='', updated_at=NOW() WHERE id=$1`, id))
}
