package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/server/validation"
)

// MicropostService is the content store. Posts are immutable; only their
// owner may delete them.
type MicropostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validator   *validation.Validator
	pager       pager
	logger      logging.Logger
	maxLength   int
	now         func() time.Time
}

func NewMicropostService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *MicropostService {
	return &MicropostService{
		db:          db,
		repomanager: m,
		validator:   validation.NewValidator(),
		pager:       newPager(cfg),
		logger:      logger.With("module", "microposts"),
		maxLength:   cfg.MaxMicropostLength,
		now:         time.Now,
	}
}

// Post stores content authored by ownerID. A missing owner yields
// common.ErrorNotFound.
func (s *MicropostService) Post(ctx context.Context, ownerID, content string) (*models.Micropost, error) {
	err := s.validator.Check([]validation.Field{
		{Name: "content", Value: content, Rules: "notblank,max=" + strconv.Itoa(s.maxLength)},
	})
	if err != nil {
		return nil, err
	}
	if err := checkUserID(ownerID); err != nil {
		return nil, err
	}

	m, err := s.repomanager.Microposts(s.db).Create(ctx, &models.Micropost{
		UserID:    ownerID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating micropost: %w", err)
	}

	s.logger.Debug(ctx, "micropost created", "micropost_id", m.ID, "user_id", ownerID)
	return m, nil
}

// Delete removes the micropost if requesterID owns it. Otherwise it
// returns common.ErrorForbidden and nothing changes.
func (s *MicropostService) Delete(ctx context.Context, id int64, requesterID string) error {
	repo := s.repomanager.Microposts(s.db)

	m, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.UserID != requesterID {
		return common.ErrorForbidden
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Debug(ctx, "micropost deleted", "micropost_id", id, "user_id", requesterID)
	return nil
}

// ListByOwner returns a page of ownerID's microposts, newest first with
// ties broken by descending id.
func (s *MicropostService) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*models.Micropost, error) {
	p, err := s.pager.page(page, pageSize)
	if err != nil {
		return nil, err
	}
	if err := ensureUsers(ctx, s.repomanager.Users(s.db), ownerID); err != nil {
		return nil, err
	}
	return s.repomanager.Microposts(s.db).ListByUser(ctx, ownerID, p.Limit(), p.Offset())
}

// Count returns how many microposts ownerID has.
func (s *MicropostService) Count(ctx context.Context, ownerID string) (int, error) {
	if err := ensureUsers(ctx, s.repomanager.Users(s.db), ownerID); err != nil {
		return 0, err
	}
	return s.repomanager.Microposts(s.db).CountByUser(ctx, ownerID)
}
