package grpc

import (
	"context"

	"github.com/dmitrijs2005/microblog/internal/server/metrics"
	"github.com/dmitrijs2005/microblog/internal/server/validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) actor(ctx context.Context) (string, error) {
	id, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "not authenticated")
	}
	return id, nil
}

func requireUserID(id string) error {
	if id == "" {
		return validation.New("user_id", "can't be blank")
	}
	return nil
}

func (s *GRPCServer) SignUp(ctx context.Context, req *SignUpRequest) (*SessionResponse, error) {
	u, err := s.users.Create(ctx, req.Name, req.Email, req.Password, req.PasswordConfirmation)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	metrics.UsersCreatedTotal.Inc()

	session, err := s.sessions.SignIn(ctx, u.ID, req.Remember)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	metrics.SessionsStartedTotal.WithLabelValues("signup").Inc()

	return toSession(session), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*SessionResponse, error) {
	session, err := s.sessions.Login(ctx, req.Email, req.Password, req.Remember)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	metrics.SessionsStartedTotal.WithLabelValues("login").Inc()

	return toSession(session), nil
}

func (s *GRPCServer) Resume(ctx context.Context, req *ResumeRequest) (*SessionResponse, error) {
	session, err := s.sessions.ResumeFromToken(ctx, req.UserID, req.RememberToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	metrics.SessionsStartedTotal.WithLabelValues("resume").Inc()

	return toSession(session), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *Empty) (*Empty, error) {
	token, ok := tokenFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}
	if err := s.sessions.SignOut(ctx, token); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) Forget(ctx context.Context, _ *Empty) (*Empty, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Forget(ctx, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *UserRequest) (*UserResponse, error) {
	if err := requireUserID(req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.profile(ctx, req.ID)
}

func (s *GRPCServer) profile(ctx context.Context, id string) (*UserResponse, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &UserResponse{User: toUser(u)}
	if resp.Following, err = s.graph.FollowingCount(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if resp.Followers, err = s.graph.FollowerCount(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if resp.Microposts, err = s.microposts.Count(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return resp, nil
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Update(ctx, userID, userID, req.Name, req.Email, req.Password, req.PasswordConfirmation); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.profile(ctx, userID)
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *UserRequest) (*Empty, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.DestroyAs(ctx, userID, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "user deleted", "actor_id", userID, "user_id", req.ID)
	return &Empty{}, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *PageRequest) (*UsersResponse, error) {
	list, err := s.users.List(ctx, pageOf(req), req.PageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &UsersResponse{Users: toUsers(list)}, nil
}

func (s *GRPCServer) Follow(ctx context.Context, req *FollowRequest) (*RelationshipResponse, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireUserID(req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.graph.Follow(ctx, userID, req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &RelationshipResponse{Following: true}, nil
}

func (s *GRPCServer) Unfollow(ctx context.Context, req *FollowRequest) (*RelationshipResponse, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireUserID(req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.graph.Unfollow(ctx, userID, req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &RelationshipResponse{Following: false}, nil
}

func (s *GRPCServer) Following(ctx context.Context, req *PageRequest) (*UsersResponse, error) {
	if err := requireUserID(req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	list, err := s.graph.FollowedUsers(ctx, req.UserID, pageOf(req), req.PageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &UsersResponse{Users: toUsers(list)}, nil
}

func (s *GRPCServer) Followers(ctx context.Context, req *PageRequest) (*UsersResponse, error) {
	if err := requireUserID(req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	list, err := s.graph.Followers(ctx, req.UserID, pageOf(req), req.PageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &UsersResponse{Users: toUsers(list)}, nil
}

func (s *GRPCServer) PostMicropost(ctx context.Context, req *PostRequest) (*Micropost, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.microposts.Post(ctx, userID, req.Content)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	metrics.MicropostsCreatedTotal.Inc()

	out := toMicropost(m)
	return &out, nil
}

func (s *GRPCServer) DeleteMicropost(ctx context.Context, req *MicropostRequest) (*Empty, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.microposts.Delete(ctx, req.ID, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ListMicroposts(ctx context.Context, req *PageRequest) (*MicropostsResponse, error) {
	if err := requireUserID(req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	list, err := s.microposts.ListByOwner(ctx, req.UserID, pageOf(req), req.PageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &MicropostsResponse{Microposts: toMicroposts(list)}, nil
}

func (s *GRPCServer) Feed(ctx context.Context, req *PageRequest) (*MicropostsResponse, error) {
	userID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.feed.Feed(ctx, userID, pageOf(req), req.PageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &MicropostsResponse{Microposts: toMicroposts(list)}, nil
}

// pageOf defaults an omitted page number to the first page.
func pageOf(req *PageRequest) int {
	if req.Page == 0 {
		return 1
	}
	return req.Page
}
