// Package services contains server-side business logic: identities,
// the follow graph, microposts, the feed and sessions. Services receive
// explicit identity IDs; none of them looks up an ambient "current user".
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/auth"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/server/validation"
	"github.com/google/uuid"
)

// rememberTokenBytes is the entropy of a raw remember token. Its hex form
// (64 chars) stays under bcrypt's 72-byte input limit.
const rememberTokenBytes = 32

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

const maxEmailLength = 255

// UserService is the identity directory: sign-up, lookup, credential
// checks, remember-token rotation, profile edits and cascading deletion.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	validator   *validation.Validator
	pager       pager
	logger      logging.Logger

	minPasswordLength int
	maxNameLength     int

	now   func() time.Time
	newID func() string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                db,
		repomanager:       m,
		hasher:            auth.NewPasswordHasher(cfg.BcryptCost),
		validator:         validation.NewValidator(),
		pager:             newPager(cfg),
		logger:            logger.With("module", "users"),
		minPasswordLength: cfg.MinPasswordLength,
		maxNameLength:     cfg.MaxNameLength,
		now:               time.Now,
		newID:             uuid.NewString,
	}
}

// checkUserID rejects ids that cannot name an identity before they reach
// the uuid columns.
func checkUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return fmt.Errorf("user %q: %w", id, common.ErrorNotFound)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) profileFields(name, email string) []validation.Field {
	return []validation.Field{
		{Name: "name", Value: name, Rules: "notblank,max=" + strconv.Itoa(s.maxNameLength)},
		{Name: "email", Value: email, Rules: "notblank,max=" + strconv.Itoa(maxEmailLength) + ",emailaddr"},
	}
}

func (s *UserService) passwordField(password string) validation.Field {
	return validation.Field{
		Name:  "password",
		Value: password,
		Rules: "notblank,min=" + strconv.Itoa(s.minPasswordLength) + ",maxbytes=" + strconv.Itoa(maxPasswordBytes),
	}
}

func confirmationViolations(password, confirmation string) []validation.Violation {
	if password == confirmation {
		return nil
	}
	return []validation.Violation{{Field: "password_confirmation", Message: "doesn't match password"}}
}

func emailTaken() error {
	return validation.New("email", "has already been taken")
}

// Create registers a new identity. The email is lower-cased before the
// uniqueness check and storage. The store's unique index is what actually
// guarantees uniqueness; the lookup beforehand only produces a friendlier
// error for the common case.
func (s *UserService) Create(ctx context.Context, name, email, password, confirmation string) (*models.User, error) {
	email = normalizeEmail(email)

	fields := append(s.profileFields(name, email), s.passwordField(password))
	if err := s.validator.Check(fields, confirmationViolations(password, confirmation)...); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	passwordDigest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	_, rememberDigest, err := s.newRememberToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:             s.newID(),
		Name:           name,
		Email:          email,
		PasswordDigest: passwordDigest,
		RememberDigest: rememberDigest,
		CreatedAt:      s.now().UTC(),
	}

	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// Get returns the identity with id or common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if err := checkUserID(id); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// FindByEmail looks an identity up case-insensitively. Absence is reported
// as common.ErrorNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
}

// Authenticate reports whether password matches the identity's stored
// password digest.
func (s *UserService) Authenticate(user *models.User, password string) bool {
	if user == nil {
		return false
	}
	return s.hasher.Verify(user.PasswordDigest, password)
}

// RotateRememberToken stores the digest of a fresh remember token and
// returns the raw token. Only the digest is persisted.
func (s *UserService) RotateRememberToken(ctx context.Context, userID string) (string, error) {
	if err := checkUserID(userID); err != nil {
		return "", err
	}
	raw, digest, err := s.newRememberToken()
	if err != nil {
		return "", err
	}
	if err := s.repomanager.Users(s.db).UpdateRememberDigest(ctx, userID, digest); err != nil {
		return "", err
	}
	return raw, nil
}

// VerifyRememberToken reports whether raw matches the identity's stored
// remember digest.
func (s *UserService) VerifyRememberToken(user *models.User, raw string) bool {
	if user == nil || raw == "" {
		return false
	}
	return s.hasher.Verify(user.RememberDigest, raw)
}

// Destroy deletes the identity together with its microposts and every
// follow edge on either side, in one transaction.
func (s *UserService) Destroy(ctx context.Context, userID string) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	var posts, edges int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if posts, err = s.repomanager.Microposts(tx).DeleteAllFor(ctx, userID); err != nil {
			return fmt.Errorf("error deleting microposts: %w", err)
		}
		if edges, err = s.repomanager.Relationships(tx).DeleteAllFor(ctx, userID); err != nil {
			return fmt.Errorf("error deleting relationships: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user destroyed", "user_id", userID, "microposts", posts, "relationships", edges)
	return nil
}

// DestroyAs deletes targetID on behalf of actorID. Only administrators may
// delete accounts this way, and never their own.
func (s *UserService) DestroyAs(ctx context.Context, actorID, targetID string) error {
	actor, err := s.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return err
	}
	if !actor.Admin || actorID == targetID {
		return common.ErrorForbidden
	}
	return s.Destroy(ctx, targetID)
}

// Update edits the identity's profile. Only the identity itself may do so.
// A blank password together with a blank confirmation keeps the current
// password.
func (s *UserService) Update(ctx context.Context, actorID, userID, name, email, password, confirmation string) (*models.User, error) {
	if actorID != userID {
		return nil, common.ErrorForbidden
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	fields := s.profileFields(name, email)
	changePassword := password != "" || confirmation != ""
	if changePassword {
		fields = append(fields, s.passwordField(password))
	}
	if err := s.validator.Check(fields, confirmationViolations(password, confirmation)...); err != nil {
		return nil, err
	}

	user.Name = name
	user.Email = email
	if changePassword {
		if user.PasswordDigest, err = s.hasher.Hash(password); err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
	}

	if err := s.repomanager.Users(s.db).Update(ctx, user); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, emailTaken()
		}
		return nil, err
	}
	return user, nil
}

// List returns one page of identities in sign-up order.
func (s *UserService) List(ctx context.Context, page, pageSize int) ([]*models.User, error) {
	p, err := s.pager.page(page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).List(ctx, p.Limit(), p.Offset())
}

// SetAdmin grants or revokes the administrative flag.
func (s *UserService) SetAdmin(ctx context.Context, userID string, admin bool) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).SetAdmin(ctx, userID, admin); err != nil {
		return err
	}
	s.logger.Info(ctx, "admin flag changed", "user_id", userID, "admin", admin)
	return nil
}

// GrantAdmins sets the admin flag on every registered identity whose email
// is listed. Unregistered emails are skipped. It returns how many
// identities were promoted.
func (s *UserService) GrantAdmins(ctx context.Context, emails []string) (int, error) {
	granted := 0
	for _, email := range emails {
		if strings.TrimSpace(email) == "" {
			continue
		}
		user, err := s.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "admin email not registered", "email", normalizeEmail(email))
				continue
			}
			return granted, fmt.Errorf("error searching user: %w", err)
		}
		if user.Admin {
			continue
		}
		if err := s.SetAdmin(ctx, user.ID, true); err != nil {
			return granted, err
		}
		granted++
	}
	return granted, nil
}

// --- helpers below ---

func (s *UserService) newRememberToken() (raw, digest string, err error) {
	raw, err = common.MakeRandHexString(rememberTokenBytes)
	if err != nil {
		return "", "", fmt.Errorf("error generating remember token: %w", err)
	}
	digest, err = s.hasher.Hash(raw)
	if err != nil {
		return "", "", fmt.Errorf("error hashing remember token: %w", err)
	}
	return raw, digest, nil
}
