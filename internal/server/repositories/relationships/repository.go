// Package relationships persists directed follow edges between users.
package relationships

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// Repository stores follow edges. The (follower, followed) pair is unique
// at the store; Create and Delete report whether a row actually changed.
type Repository interface {
	// Create inserts the edge unless it already exists. A reference to a
	// missing user yields common.ErrorNotFound.
	Create(ctx context.Context, followerID, followedID string) (bool, error)
	Delete(ctx context.Context, followerID, followedID string) (bool, error)
	Exists(ctx context.Context, followerID, followedID string) (bool, error)

	FollowedIDs(ctx context.Context, followerID string) ([]string, error)
	FollowerIDs(ctx context.Context, followedID string) ([]string, error)
	CountFollowed(ctx context.Context, followerID string) (int, error)
	CountFollowers(ctx context.Context, followedID string) (int, error)

	FollowedUsers(ctx context.Context, followerID string, limit, offset int) ([]*models.User, error)
	Followers(ctx context.Context, followedID string, limit, offset int) ([]*models.User, error)

	// DeleteAllFor removes every edge where userID is either side.
	DeleteAllFor(ctx context.Context, userID string) (int64, error)
}
