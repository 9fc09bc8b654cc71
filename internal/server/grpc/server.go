// Package grpc exposes the microblog services over gRPC. Messages travel as
// JSON (content-subtype "json") and the service is declared by hand in
// ServiceDesc, so no generated code is involved.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/services"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

type userSvc interface {
	Create(ctx context.Context, name, email, password, confirmation string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, actorID, userID, name, email, password, confirmation string) (*models.User, error)
	List(ctx context.Context, page, pageSize int) ([]*models.User, error)
	DestroyAs(ctx context.Context, actorID, targetID string) error
}

type sessionSvc interface {
	SignIn(ctx context.Context, userID string, persistent bool) (*services.Session, error)
	Login(ctx context.Context, email, password string, persistent bool) (*services.Session, error)
	ResumeFromToken(ctx context.Context, userID, rawToken string) (*services.Session, error)
	Authenticate(ctx context.Context, token string) (string, error)
	SignOut(ctx context.Context, token string) error
	Forget(ctx context.Context, userID string) error
}

type graphSvc interface {
	Follow(ctx context.Context, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) error
	FollowingCount(ctx context.Context, userID string) (int, error)
	FollowerCount(ctx context.Context, userID string) (int, error)
	FollowedUsers(ctx context.Context, userID string, page, pageSize int) ([]*models.User, error)
	Followers(ctx context.Context, userID string, page, pageSize int) ([]*models.User, error)
}

type micropostSvc interface {
	Post(ctx context.Context, ownerID, content string) (*models.Micropost, error)
	Delete(ctx context.Context, id int64, requesterID string) error
	ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*models.Micropost, error)
	Count(ctx context.Context, ownerID string) (int, error)
}

type feedSvc interface {
	Feed(ctx context.Context, userID string, page, pageSize int) ([]*models.Micropost, error)
}

// Services bundles the business services the transport dispatches to.
type Services struct {
	Users      userSvc
	Sessions   sessionSvc
	Graph      graphSvc
	Microposts micropostSvc
	Feed       feedSvc
}

type GRPCServer struct {
	address    string
	users      userSvc
	sessions   sessionSvc
	graph      graphSvc
	microposts micropostSvc
	feed       feedSvc
	logger     logging.Logger
	limiter    *rate.Limiter
}

var _ MicroblogService = (*GRPCServer)(nil)

// NewGRPCServer wires the transport. limiter throttles the sign-in RPCs;
// nil disables throttling.
func NewGRPCServer(a string, l logging.Logger, svc Services, limiter *rate.Limiter) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		users:      svc.Users,
		sessions:   svc.Sessions,
		graph:      svc.Graph,
		microposts: svc.Microposts,
		feed:       svc.Feed,
		limiter:    limiter,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(
			s.requestIDInterceptor,
			s.observeInterceptor,
			s.rateLimitInterceptor,
			s.sessionInterceptor,
		),
	)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
