package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/microblog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/microblog/internal/common"
	gs "github.com/dmitrijs2005/microblog/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcmd "google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var resumeMethod = "/" + gs.ServiceName + "/Resume"

const (
	keyUserID        = "user_id"
	keyRememberToken = "remember_token"
)

// api is the subset of gs.Client used here.
type api interface {
	SignUp(ctx context.Context, in *gs.SignUpRequest, opts ...grpc.CallOption) (*gs.SessionResponse, error)
	Login(ctx context.Context, in *gs.LoginRequest, opts ...grpc.CallOption) (*gs.SessionResponse, error)
	Resume(ctx context.Context, in *gs.ResumeRequest, opts ...grpc.CallOption) (*gs.SessionResponse, error)
	Logout(ctx context.Context, in *gs.Empty, opts ...grpc.CallOption) (*gs.Empty, error)
	Forget(ctx context.Context, in *gs.Empty, opts ...grpc.CallOption) (*gs.Empty, error)
	GetUser(ctx context.Context, in *gs.UserRequest, opts ...grpc.CallOption) (*gs.UserResponse, error)
	ListUsers(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.UsersResponse, error)
	Follow(ctx context.Context, in *gs.FollowRequest, opts ...grpc.CallOption) (*gs.RelationshipResponse, error)
	Unfollow(ctx context.Context, in *gs.FollowRequest, opts ...grpc.CallOption) (*gs.RelationshipResponse, error)
	Following(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.UsersResponse, error)
	Followers(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.UsersResponse, error)
	PostMicropost(ctx context.Context, in *gs.PostRequest, opts ...grpc.CallOption) (*gs.Micropost, error)
	DeleteMicropost(ctx context.Context, in *gs.MicropostRequest, opts ...grpc.CallOption) (*gs.Empty, error)
	ListMicroposts(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.MicropostsResponse, error)
	Feed(ctx context.Context, in *gs.PageRequest, opts ...grpc.CallOption) (*gs.MicropostsResponse, error)
}

type GRPCClient struct {
	endpointURL   string
	timeout       time.Duration
	conn          *grpc.ClientConn
	client        api
	userID        string
	token         string
	rememberToken string
	// store keeps a remembered session across runs. nil disables it.
	store metadata.Repository
}

func withSessionToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := grpcmd.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = grpcmd.MD{}
	}
	md.Set(common.SessionTokenHeaderName, token)

	return grpcmd.NewOutgoingContext(ctx, md)
}

// sessionInterceptor attaches the session token and bounds each call by the
// configured timeout. An Unauthenticated reply triggers one resume with the
// remember token, after which the call is retried.
func (s *GRPCClient) sessionInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := invoker(withSessionToken(ctx, s.token), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || method == resumeMethod || s.rememberToken == "" {
		return err
	}

	if rerr := s.resume(ctx); rerr != nil {
		return err
	}

	return invoker(withSessionToken(ctx, s.token), method, req, reply, cc, opts...)
}

func (s *GRPCClient) resume(ctx context.Context) error {
	resp, err := s.client.Resume(ctx, &gs.ResumeRequest{UserID: s.userID, RememberToken: s.rememberToken})
	if err != nil {
		return err
	}
	s.token = resp.Token
	return nil
}

func NewMicroblogClient(endpointURL string, timeout time.Duration, store metadata.Repository) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout, store: store}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.sessionInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = gs.NewClient(conn)
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return errors.New(st.Message())
	}
}

// startSession adopts the credentials of resp. A remembered session is
// written to the store, anything else removes a previously saved one.
func (s *GRPCClient) startSession(ctx context.Context, resp *gs.SessionResponse) error {
	s.userID = resp.UserID
	s.token = resp.Token
	s.rememberToken = resp.RememberToken

	if s.store == nil {
		return nil
	}
	if s.rememberToken == "" {
		return s.dropSavedSession(ctx)
	}
	if err := s.store.Set(ctx, keyUserID, []byte(s.userID)); err != nil {
		return err
	}
	return s.store.Set(ctx, keyRememberToken, []byte(s.rememberToken))
}

func (s *GRPCClient) dropSavedSession(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, keyRememberToken); err != nil {
		return err
	}
	return s.store.Delete(ctx, keyUserID)
}

// Restore resumes the session saved by an earlier remembered login. It
// reports false when nothing is saved or the server rejects the token, in
// which case the saved values are removed.
func (s *GRPCClient) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	userID, err := s.store.Get(ctx, keyUserID)
	if err != nil {
		return false, err
	}
	token, err := s.store.Get(ctx, keyRememberToken)
	if err != nil {
		return false, err
	}
	if len(userID) == 0 || len(token) == 0 {
		return false, nil
	}

	s.userID, s.rememberToken = string(userID), string(token)
	if err := s.resume(ctx); err != nil {
		s.clearSession()
		if status.Code(err) == codes.Unauthenticated {
			return false, s.dropSavedSession(ctx)
		}
		return false, s.mapError(err)
	}

	return true, nil
}

func (s *GRPCClient) clearSession() {
	s.userID, s.token, s.rememberToken = "", "", ""
}

// UserID is the identity of the current session, "" when logged out.
func (s *GRPCClient) UserID() string {
	return s.userID
}

func (s *GRPCClient) SignUp(ctx context.Context, name, email string, password, confirmation []byte, remember bool) error {
	req := &gs.SignUpRequest{
		Name:                 name,
		Email:                email,
		Password:             string(password),
		PasswordConfirmation: string(confirmation),
		Remember:             remember,
	}

	resp, err := s.client.SignUp(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	return s.startSession(ctx, resp)
}

func (s *GRPCClient) Login(ctx context.Context, email string, password []byte, remember bool) error {
	resp, err := s.client.Login(ctx, &gs.LoginRequest{Email: email, Password: string(password), Remember: remember})
	if err != nil {
		return s.mapError(err)
	}

	return s.startSession(ctx, resp)
}

// Logout ends the server session. Local credentials, saved ones included,
// are dropped even when the server call fails.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, err := s.client.Logout(ctx, &gs.Empty{})
	s.clearSession()
	if derr := s.dropSavedSession(ctx); derr != nil {
		return derr
	}
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// Forget invalidates the remember token on every device.
func (s *GRPCClient) Forget(ctx context.Context) error {
	if _, err := s.client.Forget(ctx, &gs.Empty{}); err != nil {
		return s.mapError(err)
	}
	s.rememberToken = ""
	return s.dropSavedSession(ctx)
}

func (s *GRPCClient) Profile(ctx context.Context, userID string) (*gs.UserResponse, error) {
	resp, err := s.client.GetUser(ctx, &gs.UserRequest{ID: userID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Users(ctx context.Context, page int) ([]gs.User, error) {
	resp, err := s.client.ListUsers(ctx, &gs.PageRequest{Page: page})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Users, nil
}

func (s *GRPCClient) Follow(ctx context.Context, userID string) error {
	if _, err := s.client.Follow(ctx, &gs.FollowRequest{UserID: userID}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Unfollow(ctx context.Context, userID string) error {
	if _, err := s.client.Unfollow(ctx, &gs.FollowRequest{UserID: userID}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Following(ctx context.Context, userID string, page int) ([]gs.User, error) {
	resp, err := s.client.Following(ctx, &gs.PageRequest{UserID: userID, Page: page})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Users, nil
}

func (s *GRPCClient) Followers(ctx context.Context, userID string, page int) ([]gs.User, error) {
	resp, err := s.client.Followers(ctx, &gs.PageRequest{UserID: userID, Page: page})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Users, nil
}

func (s *GRPCClient) Post(ctx context.Context, content string) (*gs.Micropost, error) {
	resp, err := s.client.PostMicropost(ctx, &gs.PostRequest{Content: content})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) DeletePost(ctx context.Context, id int64) error {
	if _, err := s.client.DeleteMicropost(ctx, &gs.MicropostRequest{ID: id}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Posts(ctx context.Context, userID string, page int) ([]gs.Micropost, error) {
	resp, err := s.client.ListMicroposts(ctx, &gs.PageRequest{UserID: userID, Page: page})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Microposts, nil
}

func (s *GRPCClient) Feed(ctx context.Context, page int) ([]gs.Micropost, error) {
	resp, err := s.client.Feed(ctx, &gs.PageRequest{Page: page})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Microposts, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
