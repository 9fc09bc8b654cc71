package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/services"
)

type fakeUsers struct {
	user    *models.User
	err     error
	list    []*models.User
	destroy error

	gotActor, gotTarget string
	gotPage, gotSize    int
}

func (f *fakeUsers) Create(ctx context.Context, name, email, password, confirmation string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUsers) Update(ctx context.Context, actorID, userID, name, email, password, confirmation string) (*models.User, error) {
	f.gotActor, f.gotTarget = actorID, userID
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUsers) List(ctx context.Context, page, pageSize int) ([]*models.User, error) {
	f.gotPage, f.gotSize = page, pageSize
	return f.list, f.err
}

func (f *fakeUsers) DestroyAs(ctx context.Context, actorID, targetID string) error {
	f.gotActor, f.gotTarget = actorID, targetID
	return f.destroy
}

type fakeSessions struct {
	session *services.Session
	err     error

	authUserID string
	authErr    error

	signedOut  string
	forgotten  string
	persistent bool
}

func (f *fakeSessions) SignIn(ctx context.Context, userID string, persistent bool) (*services.Session, error) {
	f.persistent = persistent
	return f.session, f.err
}

func (f *fakeSessions) Login(ctx context.Context, email, password string, persistent bool) (*services.Session, error) {
	f.persistent = persistent
	return f.session, f.err
}

func (f *fakeSessions) ResumeFromToken(ctx context.Context, userID, rawToken string) (*services.Session, error) {
	return f.session, f.err
}

func (f *fakeSessions) Authenticate(ctx context.Context, token string) (string, error) {
	return f.authUserID, f.authErr
}

func (f *fakeSessions) SignOut(ctx context.Context, token string) error {
	f.signedOut = token
	return f.err
}

func (f *fakeSessions) Forget(ctx context.Context, userID string) error {
	f.forgotten = userID
	return f.err
}

type fakeGraph struct {
	err       error
	following int
	followers int
	users     []*models.User

	gotFollower, gotFollowed string
}

func (f *fakeGraph) Follow(ctx context.Context, followerID, followedID string) error {
	f.gotFollower, f.gotFollowed = followerID, followedID
	return f.err
}

func (f *fakeGraph) Unfollow(ctx context.Context, followerID, followedID string) error {
	f.gotFollower, f.gotFollowed = followerID, followedID
	return f.err
}

func (f *fakeGraph) FollowingCount(ctx context.Context, userID string) (int, error) {
	return f.following, f.err
}

func (f *fakeGraph) FollowerCount(ctx context.Context, userID string) (int, error) {
	return f.followers, f.err
}

func (f *fakeGraph) FollowedUsers(ctx context.Context, userID string, page, pageSize int) ([]*models.User, error) {
	return f.users, f.err
}

func (f *fakeGraph) Followers(ctx context.Context, userID string, page, pageSize int) ([]*models.User, error) {
	return f.users, f.err
}

type fakeMicroposts struct {
	post  *models.Micropost
	list  []*models.Micropost
	count int
	err   error

	gotOwner     string
	gotRequester string
}

func (f *fakeMicroposts) Post(ctx context.Context, ownerID, content string) (*models.Micropost, error) {
	f.gotOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

func (f *fakeMicroposts) Delete(ctx context.Context, id int64, requesterID string) error {
	f.gotRequester = requesterID
	return f.err
}

func (f *fakeMicroposts) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*models.Micropost, error) {
	return f.list, f.err
}

func (f *fakeMicroposts) Count(ctx context.Context, ownerID string) (int, error) {
	return f.count, f.err
}

type fakeFeed struct {
	list []*models.Micropost
	err  error

	gotUser          string
	gotPage, gotSize int
}

func (f *fakeFeed) Feed(ctx context.Context, userID string, page, pageSize int) ([]*models.Micropost, error) {
	f.gotUser, f.gotPage, f.gotSize = userID, page, pageSize
	return f.list, f.err
}

type fakes struct {
	users      *fakeUsers
	sessions   *fakeSessions
	graph      *fakeGraph
	microposts *fakeMicroposts
	feed       *fakeFeed
}

func newFakes() *fakes {
	return &fakes{
		users:      &fakeUsers{user: &models.User{ID: "u1", Name: "U", Email: "u@example.com"}},
		sessions:   &fakeSessions{session: &services.Session{UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}},
		graph:      &fakeGraph{},
		microposts: &fakeMicroposts{},
		feed:       &fakeFeed{},
	}
}

func newServer(f *fakes) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, Services{
		Users:      f.users,
		Sessions:   f.sessions,
		Graph:      f.graph,
		Microposts: f.microposts,
		Feed:       f.feed,
	}, nil)
}

func authed(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, tokenKey, "tok-"+userID)
}
