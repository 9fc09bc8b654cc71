package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/auth"
	"github.com/dmitrijs2005/microblog/internal/server/config"
)

// Session is what a caller holds after signing in. Token is the short-lived
// signed session token. RememberToken is set only for persistent sign-ins;
// the client keeps it and presents it verbatim to ResumeFromToken.
type Session struct {
	UserID        string
	Token         string
	ExpiresAt     time.Time
	RememberToken string
}

// SessionService issues and checks sessions. Every failure to authenticate
// is reported as common.ErrorUnauthorized without saying which check
// failed.
type SessionService struct {
	users            *UserService
	jwtSecret        []byte
	validityDuration time.Duration
	logger           logging.Logger
	now              func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token id -> expiry

	dummyOnce   sync.Once
	dummyDigest string
}

func NewSessionService(users *UserService, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		users:            users,
		jwtSecret:        []byte(cfg.SecretKey),
		validityDuration: cfg.SessionTokenValidityDuration,
		logger:           logger.With("module", "sessions"),
		now:              time.Now,
		revoked:          make(map[string]time.Time),
	}
}

// SignIn starts a session for userID. A persistent sign-in also rotates the
// remember token and hands the raw value back in the session.
func (s *SessionService) SignIn(ctx context.Context, userID string, persistent bool) (*Session, error) {
	session, err := s.issue(userID)
	if err != nil {
		return nil, err
	}
	if persistent {
		raw, err := s.users.RotateRememberToken(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrorUnauthorized
			}
			return nil, err
		}
		session.RememberToken = raw
	}

	s.logger.Info(ctx, "signed in", "user_id", userID, "persistent", persistent)
	return session, nil
}

// Login checks email and password and signs the identity in.
func (s *SessionService) Login(ctx context.Context, email, password string, persistent bool) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
		// spend the same bcrypt work as for a real account
		s.users.hasher.Verify(s.dummy(), password)
		return nil, common.ErrorUnauthorized
	}
	if !s.users.Authenticate(user, password) {
		return nil, common.ErrorUnauthorized
	}
	return s.SignIn(ctx, user.ID, persistent)
}

// ResumeFromToken re-establishes a transient session from a persistent
// remember token.
func (s *SessionService) ResumeFromToken(ctx context.Context, userID, rawToken string) (*Session, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
		s.users.hasher.Verify(s.dummy(), rawToken)
		return nil, common.ErrorUnauthorized
	}
	if !s.users.VerifyRememberToken(user, rawToken) {
		return nil, common.ErrorUnauthorized
	}
	return s.issue(user.ID)
}

// Authenticate resolves a session token to the identity it belongs to.
// Expired, forged, revoked tokens and tokens of deleted identities are all
// rejected the same way.
func (s *SessionService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return "", common.ErrorUnauthorized
	}
	if s.isRevoked(claims.ID) {
		return "", common.ErrorUnauthorized
	}

	ok, err := s.users.repomanager.Users(s.users.db).Exists(ctx, claims.UserID)
	if err != nil {
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return claims.UserID, nil
}

// SignOut ends the transient session carried by token. The remember digest
// is left alone so persistent sessions on other devices keep working; use
// Forget to revoke those.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return common.ErrorUnauthorized
	}

	expires := s.now().Add(s.validityDuration)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	s.revoke(claims.ID, expires)

	s.logger.Info(ctx, "signed out", "user_id", claims.UserID)
	return nil
}

// Forget rotates the remember digest, invalidating every outstanding
// remember token of the identity.
func (s *SessionService) Forget(ctx context.Context, userID string) error {
	if _, err := s.users.RotateRememberToken(ctx, userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "remember token revoked", "user_id", userID)
	return nil
}

// --- helpers below ---

func (s *SessionService) issue(userID string) (*Session, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.validityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{UserID: userID, Token: token, ExpiresAt: s.now().Add(s.validityDuration)}, nil
}

func (s *SessionService) revoke(id string, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, k)
		}
	}
	s.revoked[id] = expires
}

func (s *SessionService) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.revoked[id]
	return ok
}

func (s *SessionService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.users.hasher.Hash("microblog-dummy-password")
	})
	return s.dummyDigest
}
