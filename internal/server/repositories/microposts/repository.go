// Package microposts persists short text posts and serves the feed query.
package microposts

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/server/models"
)

type Repository interface {
	// Create inserts the post and fills in its generated ID.
	Create(ctx context.Context, m *models.Micropost) (*models.Micropost, error)
	GetByID(ctx context.Context, id int64) (*models.Micropost, error)
	Delete(ctx context.Context, id int64) error

	// ListByUser returns the author's posts, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Micropost, error)
	CountByUser(ctx context.Context, userID string) (int, error)

	// Feed returns posts authored by userID or by anyone userID follows,
	// newest first, in a single query.
	Feed(ctx context.Context, userID string, limit, offset int) ([]*models.Micropost, error)

	DeleteAllFor(ctx context.Context, userID string) (int64, error)
}
