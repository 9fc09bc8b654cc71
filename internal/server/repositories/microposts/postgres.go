package microposts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const micropostColumns = "id, user_id, content, created_at"

func (r *PostgresRepository) Create(ctx context.Context, m *models.Micropost) (*models.Micropost, error) {
	query := `
		INSERT INTO microposts (user_id, content, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, m.UserID, m.Content, m.CreatedAt).Scan(&m.ID); err != nil {
		return nil, dbx.TranslateError(err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Micropost, error) {
	query := `SELECT ` + micropostColumns + ` FROM microposts WHERE id = $1`

	m := &models.Micropost{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.UserID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	return m, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM microposts WHERE id = $1`, id)
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

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Micropost, error) {
	query := `
		SELECT ` + micropostColumns + `
		FROM microposts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.selectPosts(ctx, query, userID, limit, offset)
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM microposts WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, dbx.TranslateError(err)
	}
	return n, nil
}

func (r *PostgresRepository) Feed(ctx context.Context, userID string, limit, offset int) ([]*models.Micropost, error) {
	query := `
		SELECT ` + micropostColumns + `
		FROM microposts
		WHERE user_id = $1
		   OR user_id IN (SELECT followed_id FROM relationships WHERE follower_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.selectPosts(ctx, query, userID, limit, offset)
}

func (r *PostgresRepository) DeleteAllFor(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM microposts WHERE user_id = $1`, userID)
	if err != nil {
		return 0, dbx.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) selectPosts(ctx context.Context, query string, args ...any) ([]*models.Micropost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	defer rows.Close()

	result := []*models.Micropost{}
	for rows.Next() {
		m := &models.Micropost{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
			return nil, dbx.TranslateError(err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.TranslateError(err)
	}
	return result, nil
}
