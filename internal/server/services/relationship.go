package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/server/validation"
)

// RelationshipService is the social graph: directed follow edges between
// existing identities. Follow and Unfollow are idempotent.
type RelationshipService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	pager           pager
	logger          logging.Logger
	allowSelfFollow bool
}

func NewRelationshipService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *RelationshipService {
	return &RelationshipService{
		db:              db,
		repomanager:     m,
		pager:           newPager(cfg),
		logger:          logger.With("module", "relationships"),
		allowSelfFollow: cfg.AllowSelfFollow,
	}
}

// Follow creates the edge followerID -> followedID if it does not exist yet.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID && !s.allowSelfFollow {
		return validation.New("followed_id", "can't be the same as the follower")
	}
	if err := s.ensureUsers(ctx, followerID, followedID); err != nil {
		return err
	}

	created, err := s.repomanager.Relationships(s.db).Create(ctx, followerID, followedID)
	if err != nil {
		// a concurrent follow of the same pair already won
		if errors.Is(err, common.ErrorConflict) {
			return nil
		}
		return fmt.Errorf("error creating relationship: %w", err)
	}
	if created {
		s.logger.Debug(ctx, "followed", "follower_id", followerID, "followed_id", followedID)
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := s.ensureUsers(ctx, followerID, followedID); err != nil {
		return err
	}

	removed, err := s.repomanager.Relationships(s.db).Delete(ctx, followerID, followedID)
	if err != nil {
		return fmt.Errorf("error deleting relationship: %w", err)
	}
	if removed {
		s.logger.Debug(ctx, "unfollowed", "follower_id", followerID, "followed_id", followedID)
	}
	return nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	if err := s.ensureUsers(ctx, followerID, followedID); err != nil {
		return false, err
	}
	return s.repomanager.Relationships(s.db).Exists(ctx, followerID, followedID)
}

// FollowedIDs lists the identities followerID follows.
func (s *RelationshipService) FollowedIDs(ctx context.Context, followerID string) ([]string, error) {
	if err := s.ensureUsers(ctx, followerID); err != nil {
		return nil, err
	}
	return s.repomanager.Relationships(s.db).FollowedIDs(ctx, followerID)
}

// FollowerIDs lists the identities following followedID.
func (s *RelationshipService) FollowerIDs(ctx context.Context, followedID string) ([]string, error) {
	if err := s.ensureUsers(ctx, followedID); err != nil {
		return nil, err
	}
	return s.repomanager.Relationships(s.db).FollowerIDs(ctx, followedID)
}

func (s *RelationshipService) FollowingCount(ctx context.Context, userID string) (int, error) {
	if err := s.ensureUsers(ctx, userID); err != nil {
		return 0, err
	}
	return s.repomanager.Relationships(s.db).CountFollowed(ctx, userID)
}

func (s *RelationshipService) FollowerCount(ctx context.Context, userID string) (int, error) {
	if err := s.ensureUsers(ctx, userID); err != nil {
		return 0, err
	}
	return s.repomanager.Relationships(s.db).CountFollowers(ctx, userID)
}

// FollowedUsers returns a page of the profiles userID follows, most
// recently followed first.
func (s *RelationshipService) FollowedUsers(ctx context.Context, userID string, page, pageSize int) ([]*models.User, error) {
	p, err := s.pager.page(page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUsers(ctx, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Relationships(s.db).FollowedUsers(ctx, userID, p.Limit(), p.Offset())
}

// Followers returns a page of the profiles following userID.
func (s *RelationshipService) Followers(ctx context.Context, userID string, page, pageSize int) ([]*models.User, error) {
	p, err := s.pager.page(page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUsers(ctx, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Relationships(s.db).Followers(ctx, userID, p.Limit(), p.Offset())
}

// ensureUsers fails with common.ErrorNotFound unless every id names an
// existing identity.
func (s *RelationshipService) ensureUsers(ctx context.Context, ids ...string) error {
	return ensureUsers(ctx, s.repomanager.Users(s.db), ids...)
}

type userExister interface {
	Exists(ctx context.Context, id string) (bool, error)
}

func ensureUsers(ctx context.Context, repo userExister, ids ...string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if err := checkUserID(id); err != nil {
			return err
		}
		ok, err := repo.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("error checking user: %w", err)
		}
		if !ok {
			return fmt.Errorf("user %s: %w", id, common.ErrorNotFound)
		}
	}
	return nil
}
