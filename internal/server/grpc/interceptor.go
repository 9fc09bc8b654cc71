package grpc

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/server/metrics"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	tokenKey     ctxKey = "sessionToken"
	requestIDKey ctxKey = "requestID"
)

// publicMethods may be called without a session token.
var publicMethods = map[string]bool{
	fullMethod("SignUp"):         true,
	fullMethod("Login"):          true,
	fullMethod("Resume"):         true,
	fullMethod("GetUser"):        true,
	fullMethod("ListUsers"):      true,
	fullMethod("Following"):      true,
	fullMethod("Followers"):      true,
	fullMethod("ListMicroposts"): true,
}

// rateLimitedMethods check credentials and share the sign-in limiter.
var rateLimitedMethods = map[string]bool{
	fullMethod("SignUp"): true,
	fullMethod("Login"):  true,
	fullMethod("Resume"): true,
}

func firstValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func tokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok && t != ""
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDInterceptor propagates the caller's x-request-id or mints one,
// and echoes it in the response header.
func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := firstValue(ctx, common.RequestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, id))

	return handler(context.WithValue(ctx, requestIDKey, id), req)
}

// observeInterceptor records metrics and an access log line per RPC.
func (s *GRPCServer) observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	elapsed := time.Since(start)

	method := path.Base(info.FullMethod)
	code := status.Code(err)

	metrics.RequestsTotal.WithLabelValues(method, code.String()).Inc()
	metrics.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())

	s.logger.Info(ctx, "rpc",
		"method", method,
		"code", code.String(),
		"duration", elapsed,
		"request_id", requestIDFromContext(ctx),
	)
	return resp, err
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.limiter != nil && rateLimitedMethods[info.FullMethod] && !s.limiter.Allow() {
		metrics.RateLimitedTotal.WithLabelValues(path.Base(info.FullMethod)).Inc()
		return nil, status.Error(codes.ResourceExhausted, "too many requests")
	}
	return handler(ctx, req)
}

// sessionInterceptor resolves the session token of non-public methods to
// the acting identity and stores both in the context.
func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token := firstValue(ctx, common.SessionTokenHeaderName)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := s.sessions.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "not authenticated")
		}
		return nil, s.toStatus(ctx, err)
	}

	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, tokenKey, token)
	return handler(ctx, req)
}
