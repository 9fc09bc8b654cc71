package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
)

// FeedService answers "what should this identity see": its own
// microposts merged with those of everyone it follows.
type FeedService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pager       pager
}

func NewFeedService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *FeedService {
	return &FeedService{db: db, repomanager: m, pager: newPager(cfg)}
}

// Feed returns one page of the identity's feed ordered by creation time
// descending, ties broken by descending id. Filtering, ordering and paging
// all happen in a single storage query keyed on the author index. An
// identity that follows no one and has posted nothing gets an empty page.
func (s *FeedService) Feed(ctx context.Context, userID string, page, pageSize int) ([]*models.Micropost, error) {
	p, err := s.pager.page(page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := ensureUsers(ctx, s.repomanager.Users(s.db), userID); err != nil {
		return nil, err
	}
	return s.repomanager.Microposts(s.db).Feed(ctx, userID, p.Limit(), p.Offset())
}
