package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/dbx"
	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/microposts"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/relationships"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/users"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the three tables. Uniqueness and
// foreign keys are enforced the way the Postgres schema does.
type memStore struct {
	mu sync.Mutex

	users map[string]*models.User
	edges []models.Relationship
	posts []*models.Micropost

	nextEdgeID int64
	nextPostID int64

	createUserErr error
	createEdgeErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}}
}

func (s *memStore) postsOf(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n
}

func (s *memStore) edgesTouching(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.edges {
		if e.FollowerID == userID || e.FollowedID == userID {
			n++
		}
	}
	return n
}

// addPost inserts a post with an explicit timestamp.
func (s *memStore) addPost(userID, content string, at time.Time) *models.Micropost {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPostID++
	p := &models.Micropost{ID: s.nextPostID, UserID: userID, Content: content, CreatedAt: at}
	s.posts = append(s.posts, p)
	return p
}

func page[T any](items []T, limit, offset int) []T {
	out := []T{}
	if offset >= len(items) {
		return out
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append(out, items[offset:end]...)
}

// --- users ---

// errBadUUID is what Postgres answers (SQLSTATE 22P02) when a malformed
// literal hits a uuid column.
var errBadUUID = errors.New("db error: invalid input syntax for type uuid")

func uuidLiteral(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errBadUUID
	}
	return nil
}

type memUsers struct{ s *memStore }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createUserErr != nil {
		return nil, r.s.createUserErr
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrorConflict
		}
	}
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = cloneUser(u)
	return u, nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := uuidLiteral(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) Exists(ctx context.Context, id string) (bool, error) {
	if err := uuidLiteral(id); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

func (r memUsers) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), nil
}

func (r memUsers) Update(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return common.ErrorConflict
		}
	}
	existing.Name, existing.Email, existing.PasswordDigest = u.Name, u.Email, u.PasswordDigest
	existing.UpdatedAt = time.Now().UTC()
	u.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r memUsers) UpdateRememberDigest(ctx context.Context, id string, digest string) error {
	if err := uuidLiteral(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.RememberDigest = digest
	return nil
}

func (r memUsers) SetAdmin(ctx context.Context, id string, admin bool) error {
	if err := uuidLiteral(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Admin = admin
	return nil
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	if err := uuidLiteral(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	return nil
}

// --- relationships ---

type memRelationships struct{ s *memStore }

func (r memRelationships) Create(ctx context.Context, followerID, followedID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createEdgeErr != nil {
		return false, r.s.createEdgeErr
	}
	if _, ok := r.s.users[followerID]; !ok {
		return false, common.ErrorNotFound
	}
	if _, ok := r.s.users[followedID]; !ok {
		return false, common.ErrorNotFound
	}
	for _, e := range r.s.edges {
		if e.FollowerID == followerID && e.FollowedID == followedID {
			return false, nil
		}
	}
	r.s.nextEdgeID++
	r.s.edges = append(r.s.edges, models.Relationship{
		ID: r.s.nextEdgeID, FollowerID: followerID, FollowedID: followedID, CreatedAt: time.Now(),
	})
	return true, nil
}

func (r memRelationships) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, e := range r.s.edges {
		if e.FollowerID == followerID && e.FollowedID == followedID {
			r.s.edges = append(r.s.edges[:i], r.s.edges[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r memRelationships) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.edges {
		if e.FollowerID == followerID && e.FollowedID == followedID {
			return true, nil
		}
	}
	return false, nil
}

func (r memRelationships) other(userID string, byFollower bool) []string {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{}
	for _, e := range r.s.edges {
		switch {
		case byFollower && e.FollowerID == userID:
			ids = append(ids, e.FollowedID)
		case !byFollower && e.FollowedID == userID:
			ids = append(ids, e.FollowerID)
		}
	}
	return ids
}

func (r memRelationships) FollowedIDs(ctx context.Context, followerID string) ([]string, error) {
	return r.other(followerID, true), nil
}

func (r memRelationships) FollowerIDs(ctx context.Context, followedID string) ([]string, error) {
	return r.other(followedID, false), nil
}

func (r memRelationships) CountFollowed(ctx context.Context, followerID string) (int, error) {
	return len(r.other(followerID, true)), nil
}

func (r memRelationships) CountFollowers(ctx context.Context, followedID string) (int, error) {
	return len(r.other(followedID, false)), nil
}

func (r memRelationships) profiles(ids []string, limit, offset int) []*models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// newest edge first
	out := []*models.User{}
	for i := len(ids) - 1; i >= 0; i-- {
		if u, ok := r.s.users[ids[i]]; ok {
			out = append(out, &models.User{ID: u.ID, Name: u.Name, Email: u.Email, Admin: u.Admin, CreatedAt: u.CreatedAt})
		}
	}
	return page(out, limit, offset)
}

func (r memRelationships) FollowedUsers(ctx context.Context, followerID string, limit, offset int) ([]*models.User, error) {
	return r.profiles(r.other(followerID, true), limit, offset), nil
}

func (r memRelationships) Followers(ctx context.Context, followedID string, limit, offset int) ([]*models.User, error) {
	return r.profiles(r.other(followedID, false), limit, offset), nil
}

func (r memRelationships) DeleteAllFor(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.edges[:0]
	var n int64
	for _, e := range r.s.edges {
		if e.FollowerID == userID || e.FollowedID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.s.edges = kept
	return n, nil
}

// --- microposts ---

type memMicroposts struct{ s *memStore }

func newestFirst(posts []*models.Micropost) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

func (r memMicroposts) Create(ctx context.Context, m *models.Micropost) (*models.Micropost, error) {
	if err := uuidLiteral(m.UserID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[m.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	r.s.nextPostID++
	m.ID = r.s.nextPostID
	c := *m
	r.s.posts = append(r.s.posts, &c)
	return m, nil
}

func (r memMicroposts) GetByID(ctx context.Context, id int64) (*models.Micropost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memMicroposts) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, p := range r.s.posts {
		if p.ID == id {
			r.s.posts = append(r.s.posts[:i], r.s.posts[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memMicroposts) selectWhere(keep func(*models.Micropost) bool, limit, offset int) []*models.Micropost {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Micropost{}
	for _, p := range r.s.posts {
		if keep(p) {
			c := *p
			out = append(out, &c)
		}
	}
	newestFirst(out)
	return page(out, limit, offset)
}

func (r memMicroposts) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Micropost, error) {
	return r.selectWhere(func(p *models.Micropost) bool { return p.UserID == userID }, limit, offset), nil
}

func (r memMicroposts) CountByUser(ctx context.Context, userID string) (int, error) {
	return r.s.postsOf(userID), nil
}

func (r memMicroposts) Feed(ctx context.Context, userID string, limit, offset int) ([]*models.Micropost, error) {
	authors := map[string]bool{userID: true}
	for _, id := range (memRelationships{r.s}).other(userID, true) {
		authors[id] = true
	}
	return r.selectWhere(func(p *models.Micropost) bool { return authors[p.UserID] }, limit, offset), nil
}

func (r memMicroposts) DeleteAllFor(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.posts[:0]
	var n int64
	for _, p := range r.s.posts {
		if p.UserID == userID {
			n++
			continue
		}
		kept = append(kept, p)
	}
	r.s.posts = kept
	return n, nil
}

// --- manager ---

type memRepoManager struct{ s *memStore }

func (m memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m memRepoManager) Users(db dbx.DBTX) users.Repository { return memUsers{m.s} }

func (m memRepoManager) Relationships(db dbx.DBTX) relationships.Repository {
	return memRelationships{m.s}
}

func (m memRepoManager) Microposts(db dbx.DBTX) microposts.Repository { return memMicroposts{m.s} }

// --- wiring ---

// fakeClock advances one second per reading so consecutive writes get
// strictly increasing timestamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = 4
	cfg.SecretKey = "test-secret"
	cfg.SessionTokenValidityDuration = time.Hour
	return cfg
}

type testEnv struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *memStore
	clock    *fakeClock
	users    *UserService
	graph    *RelationshipService
	posts    *MicropostService
	feed     *FeedService
	sessions *SessionService
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := newTestConfig()
	for _, f := range mutate {
		f(cfg)
	}

	store := newMemStore()
	rm := memRepoManager{store}
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	log := logging.Nop{}

	us := NewUserService(db, rm, cfg, log)
	us.now = clock.Now
	ps := NewMicropostService(db, rm, cfg, log)
	ps.now = clock.Now

	return &testEnv{
		db:       db,
		mock:     mock,
		store:    store,
		clock:    clock,
		users:    us,
		graph:    NewRelationshipService(db, rm, cfg, log),
		posts:    ps,
		feed:     NewFeedService(db, rm, cfg),
		sessions: NewSessionService(us, cfg, log),
	}
}

func (e *testEnv) mustCreateUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), name, email, "foobar", "foobar")
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return u
}

func (e *testEnv) mustPost(t *testing.T, userID, content string) *models.Micropost {
	t.Helper()
	m, err := e.posts.Post(context.Background(), userID, content)
	if err != nil {
		t.Fatalf("post %q: %v", content, err)
	}
	return m
}

func contents(posts []*models.Micropost) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Content)
	}
	return out
}
