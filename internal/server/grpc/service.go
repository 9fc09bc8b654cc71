package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "microblog.v1.Microblog"

// MicroblogService is the set of RPCs served under ServiceName.
type MicroblogService interface {
	SignUp(context.Context, *SignUpRequest) (*SessionResponse, error)
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	Resume(context.Context, *ResumeRequest) (*SessionResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	Forget(context.Context, *Empty) (*Empty, error)

	GetUser(context.Context, *UserRequest) (*UserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error)
	DeleteUser(context.Context, *UserRequest) (*Empty, error)
	ListUsers(context.Context, *PageRequest) (*UsersResponse, error)

	Follow(context.Context, *FollowRequest) (*RelationshipResponse, error)
	Unfollow(context.Context, *FollowRequest) (*RelationshipResponse, error)
	Following(context.Context, *PageRequest) (*UsersResponse, error)
	Followers(context.Context, *PageRequest) (*UsersResponse, error)

	PostMicropost(context.Context, *PostRequest) (*Micropost, error)
	DeleteMicropost(context.Context, *MicropostRequest) (*Empty, error)
	ListMicroposts(context.Context, *PageRequest) (*MicropostsResponse, error)
	Feed(context.Context, *PageRequest) (*MicropostsResponse, error)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds the MethodDesc for one RPC.
func unary[Req, Resp any](name string, call func(MicroblogService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MicroblogService), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes MicroblogService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MicroblogService)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignUp", MicroblogService.SignUp),
		unary("Login", MicroblogService.Login),
		unary("Resume", MicroblogService.Resume),
		unary("Logout", MicroblogService.Logout),
		unary("Forget", MicroblogService.Forget),
		unary("GetUser", MicroblogService.GetUser),
		unary("UpdateUser", MicroblogService.UpdateUser),
		unary("DeleteUser", MicroblogService.DeleteUser),
		unary("ListUsers", MicroblogService.ListUsers),
		unary("Follow", MicroblogService.Follow),
		unary("Unfollow", MicroblogService.Unfollow),
		unary("Following", MicroblogService.Following),
		unary("Followers", MicroblogService.Followers),
		unary("PostMicropost", MicroblogService.PostMicropost),
		unary("DeleteMicropost", MicroblogService.DeleteMicropost),
		unary("ListMicroposts", MicroblogService.ListMicroposts),
		unary("Feed", MicroblogService.Feed),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "microblog/v1/microblog.json",
}

// Client calls MicroblogService over a client connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, c *Client, name string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SignUpRequest, SessionResponse](ctx, c, "SignUp", in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[LoginRequest, SessionResponse](ctx, c, "Login", in, opts)
}

func (c *Client) Resume(ctx context.Context, in *ResumeRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[ResumeRequest, SessionResponse](ctx, c, "Resume", in, opts)
}

func (c *Client) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty, Empty](ctx, c, "Logout", in, opts)
}

func (c *Client) Forget(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty, Empty](ctx, c, "Forget", in, opts)
}

func (c *Client) GetUser(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserRequest, UserResponse](ctx, c, "GetUser", in, opts)
}

func (c *Client) UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UpdateUserRequest, UserResponse](ctx, c, "UpdateUser", in, opts)
}

func (c *Client) DeleteUser(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[UserRequest, Empty](ctx, c, "DeleteUser", in, opts)
}

func (c *Client) ListUsers(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*UsersResponse, error) {
	return invoke[PageRequest, UsersResponse](ctx, c, "ListUsers", in, opts)
}

func (c *Client) Follow(ctx context.Context, in *FollowRequest, opts ...grpc.CallOption) (*RelationshipResponse, error) {
	return invoke[FollowRequest, RelationshipResponse](ctx, c, "Follow", in, opts)
}

func (c *Client) Unfollow(ctx context.Context, in *FollowRequest, opts ...grpc.CallOption) (*RelationshipResponse, error) {
	return invoke[FollowRequest, RelationshipResponse](ctx, c, "Unfollow", in, opts)
}

func (c *Client) Following(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*UsersResponse, error) {
	return invoke[PageRequest, UsersResponse](ctx, c, "Following", in, opts)
}

func (c *Client) Followers(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*UsersResponse, error) {
	return invoke[PageRequest, UsersResponse](ctx, c, "Followers", in, opts)
}

func (c *Client) PostMicropost(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*Micropost, error) {
	return invoke[PostRequest, Micropost](ctx, c, "PostMicropost", in, opts)
}

func (c *Client) DeleteMicropost(ctx context.Context, in *MicropostRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[MicropostRequest, Empty](ctx, c, "DeleteMicropost", in, opts)
}

func (c *Client) ListMicroposts(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*MicropostsResponse, error) {
	return invoke[PageRequest, MicropostsResponse](ctx, c, "ListMicroposts", in, opts)
}

func (c *Client) Feed(ctx context.Context, in *PageRequest, opts ...grpc.CallOption) (*MicropostsResponse, error) {
	return invoke[PageRequest, MicropostsResponse](ctx, c, "Feed", in, opts)
}
