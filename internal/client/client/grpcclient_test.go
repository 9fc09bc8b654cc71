package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	gs "github.com/dmitrijs2005/microblog/internal/server/grpc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

/*************
 * Fake api
 *************/

type fakeAPI struct {
	lastSignUp  *gs.SignUpRequest
	lastLogin   *gs.LoginRequest
	lastResume  *gs.ResumeRequest
	lastFollow  *gs.FollowRequest
	lastPage    *gs.PageRequest
	lastPost    *gs.PostRequest
	lastDelete  *gs.MicropostRequest
	lastGetUser *gs.UserRequest

	session   *gs.SessionResponse
	resumeErr error
	err       error

	users []gs.User
	posts []gs.Micropost
}

func (f *fakeAPI) SignUp(ctx context.Context, in *gs.SignUpRequest, opts ...grpc.CallOption) (*gs.SessionResponse, error) {
	f.lastSignUp = in
	return f.session, f.err
}
func (f *fakeAPI) Login(ctx context.Context, in *gs.LoginRequest, opts ...grpc.CallOption) (*gs.SessionResponse, error) {
	f.lastLogin = in
	return f.session, f.err
}
func (f *fakeAPI) Resume(ctx context.Context, in *gs.ResumeRequest, opts ...grpc.CallOption) (*gs.SessionResponse, error) {
	f.lastResume = in
	return f.session, f.resumeErr
}
func (f *fakeAPI) Logout(ctx context.Context, in *gs.Empty, opts ...grpc.CallOption) (*gs.Empty, error) {
	return &gs.Empty{}, f.err
}
func (f *fakeAPI) Forget(ctx context.Context, in *gs.Empty, opts ...grpc.CallOption) (*gs.Empty, error) {
	return &gs.Empty{}, f.err
}
func (f *fakeAPI) GetUser(ctx context.Context, in *gs.UserRequest, opts ...grpc.CallOption) (*gs.UserResponse, error) {
	f.lastGetUser = in
	if f.err != nil {
		return nil, f.err
	}
	return &gs.UserResponse{User: gs.User{ID: in.ID}}, nil
}
func (f *fakeAPI) ListUsers(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.UsersResponse, error) {
	f.lastPage = in
	return &gs.UsersResponse{Users: f.users}, f.err
}
func (f *fakeAPI) Follow(ctx context.Context, in *gs.FollowRequest, opts ...grpc.CallOption) (*gs.RelationshipResponse, error) {
	f.lastFollow = in
	return &gs.RelationshipResponse{Following: true}, f.err
}
func (f *fakeAPI) Unfollow(ctx context.Context, in *gs.FollowRequest, opts ...grpc.CallOption) (*gs.RelationshipResponse, error) {
	f.lastFollow = in
	return &gs.RelationshipResponse{}, f.err
}
func (f *fakeAPI) Following(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.UsersResponse, error) {
	f.lastPage = in
	return &gs.UsersResponse{Users: f.users}, f.err
}
func (f *fakeAPI) Followers(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.UsersResponse, error) {
	f.lastPage = in
	return &gs.UsersResponse{Users: f.users}, f.err
}
func (f *fakeAPI) PostMicropost(ctx context.Context, in *gs.PostRequest, opts ...grpc.CallOption) (*gs.Micropost, error) {
	f.lastPost = in
	if f.err != nil {
		return nil, f.err
	}
	return &gs.Micropost{ID: 1, Content: in.Content}, nil
}
func (f *fakeAPI) DeleteMicropost(ctx context.Context, in *gs.MicropostRequest, opts ...grpc.CallOption) (*gs.Empty, error) {
	f.lastDelete = in
	return &gs.Empty{}, f.err
}
func (f *fakeAPI) ListMicroposts(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.MicropostsResponse, error) {
	f.lastPage = in
	return &gs.MicropostsResponse{Microposts: f.posts}, f.err
}
func (f *fakeAPI) Feed(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.MicropostsResponse, error) {
	f.lastPage = in
	return &gs.MicropostsResponse{Microposts: f.posts}, f.err
}

/*************
 * sessionInterceptor tests
 *************/

func tokenOf(t *testing.T, ctx context.Context) string {
	t.Helper()
	md, _ := metadata.FromOutgoingContext(ctx)
	toks := md.Get(common.SessionTokenHeaderName)
	if len(toks) == 0 {
		return ""
	}
	require.Len(t, toks, 1)
	return toks[0]
}

func TestInterceptor_ResumesOnUnauthenticatedAndRetries(t *testing.T) {
	f := &fakeAPI{session: &gs.SessionResponse{UserID: "u1", Token: "T2"}}
	c := &GRPCClient{client: f, userID: "u1", token: "T1", rememberToken: "R1"}

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		if callCount == 1 {
			require.Equal(t, "T1", tokenOf(t, ctx))
			return status.Error(codes.Unauthenticated, "not authenticated")
		}
		require.Equal(t, "T2", tokenOf(t, ctx))
		return nil
	}

	err := c.sessionInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "T2", c.token)
	require.Equal(t, "R1", f.lastResume.RememberToken)
	require.Equal(t, "u1", f.lastResume.UserID)
}

func TestInterceptor_NoResumeWithoutRememberToken(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{client: f, token: "T1"}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "not authenticated")
	}

	err := c.sessionInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastResume)
}

func TestInterceptor_NoResumeForResumeItself(t *testing.T) {
	f := &fakeAPI{}
	c := &GRPCClient{client: f, rememberToken: "R1"}

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "not authenticated")
	}

	err := c.sessionInterceptor(context.Background(), resumeMethod, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastResume)
}

func TestInterceptor_FailedResumeReturnsOriginalError(t *testing.T) {
	f := &fakeAPI{resumeErr: status.Error(codes.Unauthenticated, "not authenticated")}
	c := &GRPCClient{client: f, token: "T1", rememberToken: "stale"}

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, "not authenticated")
	}

	err := c.sessionInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	require.Equal(t, 1, calls)
	require.Equal(t, "T1", c.token)
}

func TestInterceptor_IgnoresOtherErrorsAndSetsDeadline(t *testing.T) {
	c := &GRPCClient{token: "X", rememberToken: "R", timeout: time.Second}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		_, ok := ctx.Deadline()
		require.True(t, ok)
		return status.Error(codes.Internal, "boom")
	}
	err := c.sessionInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestInterceptor_NoTokenNoMetadata(t *testing.T) {
	c := &GRPCClient{}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Empty(t, tokenOf(t, ctx))
		return nil
	}
	require.NoError(t, c.sessionInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, ErrForbidden, c.mapError(status.Error(codes.PermissionDenied, "x")))
	require.Equal(t, ErrNotFound, c.mapError(status.Error(codes.NotFound, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.EqualError(t, c.mapError(status.Error(codes.InvalidArgument, "validation error: email is invalid")), "validation error: email is invalid")
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
}

/*************
 * session lifecycle tests
 *************/

func TestSignUpStoresSession(t *testing.T) {
	f := &fakeAPI{session: &gs.SessionResponse{UserID: "u1", Token: "T", RememberToken: "R"}}
	c := &GRPCClient{client: f}

	err := c.SignUp(context.Background(), "Ann", "ann@example.com", []byte("foobar"), []byte("foobar"), true)
	require.NoError(t, err)
	require.Equal(t, "u1", c.UserID())
	require.Equal(t, "T", c.token)
	require.Equal(t, "R", c.rememberToken)
	require.Equal(t, "foobar", f.lastSignUp.PasswordConfirmation)
	require.True(t, f.lastSignUp.Remember)
}

func TestLogin_MapsError(t *testing.T) {
	f := &fakeAPI{err: status.Error(codes.Unauthenticated, "not authenticated")}
	c := &GRPCClient{client: f}

	err := c.Login(context.Background(), "ann@example.com", []byte("wrong"), false)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Empty(t, c.UserID())
}

func TestLogoutClearsSessionEvenOnError(t *testing.T) {
	f := &fakeAPI{err: status.Error(codes.Unavailable, "down")}
	c := &GRPCClient{client: f, userID: "u1", token: "T", rememberToken: "R"}

	require.ErrorIs(t, c.Logout(context.Background()), ErrUnavailable)
	require.Empty(t, c.UserID())
	require.Empty(t, c.token)
	require.Empty(t, c.rememberToken)
}

func TestForgetDropsRememberToken(t *testing.T) {
	c := &GRPCClient{client: &fakeAPI{}, userID: "u1", token: "T", rememberToken: "R"}

	require.NoError(t, c.Forget(context.Background()))
	require.Empty(t, c.rememberToken)
	require.Equal(t, "T", c.token)
}

/*************
 * content and graph calls
 *************/

func TestCallsPassArguments(t *testing.T) {
	f := &fakeAPI{posts: []gs.Micropost{{ID: 1}}, users: []gs.User{{ID: "u2"}}}
	c := &GRPCClient{client: f}
	ctx := context.Background()

	m, err := c.Post(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", m.Content)

	require.NoError(t, c.DeletePost(ctx, 7))
	require.Equal(t, int64(7), f.lastDelete.ID)

	require.NoError(t, c.Follow(ctx, "u2"))
	require.Equal(t, "u2", f.lastFollow.UserID)

	users, err := c.Followers(ctx, "u2", 3)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 3, f.lastPage.Page)

	posts, err := c.Feed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 2, f.lastPage.Page)

	p, err := c.Profile(ctx, "u9")
	require.NoError(t, err)
	require.Equal(t, "u9", p.User.ID)
}

func TestCloseWithoutConnection(t *testing.T) {
	require.NoError(t, (&GRPCClient{}).Close())
}
