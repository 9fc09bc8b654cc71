package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

const userColumns = `id, name, email, password_digest, remember_digest, admin, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX, so the same
// code runs against *sql.DB or inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordDigest, &u.RememberDigest, &u.Admin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_digest, remember_digest, admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordDigest, user.RememberDigest, user.Admin, user.CreatedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	user.UpdatedAt = user.CreatedAt
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	return u, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, dbx.TranslateError(err)
	}
	return exists, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	defer rows.Close()

	result := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbx.TranslateError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.TranslateError(err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, password_digest = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	row := r.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordDigest)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		return dbx.TranslateError(err)
	}
	return nil
}

func (r *PostgresRepository) UpdateRememberDigest(ctx context.Context, id string, digest string) error {
	query := `UPDATE users SET remember_digest = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, digest)
	return expectOneRow(res, err)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	query := `UPDATE users SET admin = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, admin)
	return expectOneRow(res, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return expectOneRow(res, err)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectOneRow(res rowsAffecter, err error) error {
	if err != nil {
		return dbx.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
