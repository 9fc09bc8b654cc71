package relationships

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `
		INSERT INTO relationships (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, followerID, followedID)
	return changed(res, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `DELETE FROM relationships WHERE follower_id = $1 AND followed_id = $2`

	res, err := r.db.ExecContext(ctx, query, followerID, followedID)
	return changed(res, err)
}

func (r *PostgresRepository) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM relationships WHERE follower_id = $1 AND followed_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&exists); err != nil {
		return false, dbx.TranslateError(err)
	}
	return exists, nil
}

func (r *PostgresRepository) FollowedIDs(ctx context.Context, followerID string) ([]string, error) {
	return r.selectIDs(ctx, `SELECT followed_id FROM relationships WHERE follower_id = $1 ORDER BY id`, followerID)
}

func (r *PostgresRepository) FollowerIDs(ctx context.Context, followedID string) ([]string, error) {
	return r.selectIDs(ctx, `SELECT follower_id FROM relationships WHERE followed_id = $1 ORDER BY id`, followedID)
}

func (r *PostgresRepository) CountFollowed(ctx context.Context, followerID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM relationships WHERE follower_id = $1`, followerID)
}

func (r *PostgresRepository) CountFollowers(ctx context.Context, followedID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM relationships WHERE followed_id = $1`, followedID)
}

func (r *PostgresRepository) FollowedUsers(ctx context.Context, followerID string, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.admin, u.created_at
		FROM relationships r
		JOIN users u ON u.id = r.followed_id
		WHERE r.follower_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.selectUsers(ctx, query, followerID, limit, offset)
}

func (r *PostgresRepository) Followers(ctx context.Context, followedID string, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.admin, u.created_at
		FROM relationships r
		JOIN users u ON u.id = r.follower_id
		WHERE r.followed_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.selectUsers(ctx, query, followedID, limit, offset)
}

func (r *PostgresRepository) DeleteAllFor(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM relationships WHERE follower_id = $1 OR followed_id = $1`, userID)
	if err != nil {
		return 0, dbx.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) selectIDs(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbx.TranslateError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.TranslateError(err)
	}
	return ids, nil
}

func (r *PostgresRepository) selectUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.TranslateError(err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Admin, &u.CreatedAt); err != nil {
			return nil, dbx.TranslateError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.TranslateError(err)
	}
	return result, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, arg string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, dbx.TranslateError(err)
	}
	return n, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func changed(res rowsAffecter, err error) (bool, error) {
	if err != nil {
		return false, dbx.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
