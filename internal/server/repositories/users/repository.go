// Package users declares and implements persistence for user identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// Repository stores user identities. Lookups of absent rows return
// common.ErrorNotFound; a duplicate email returns common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	// Update rewrites name, email and password digest and sets
	// user.UpdatedAt to the stored modification time.
	Update(ctx context.Context, user *models.User) error
	UpdateRememberDigest(ctx context.Context, id string, digest string) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	Delete(ctx context.Context, id string) error
}
