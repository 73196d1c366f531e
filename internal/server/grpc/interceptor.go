package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/server/auth"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// protectedMethods require a valid session token; the value is the lowest
// role the caller must hold.
var protectedMethods = map[string]models.Role{
	api.MethodGetProfile:    models.RoleUser,
	api.MethodUpdateProfile: models.RoleUser,
	api.MethodDeleteAccount: models.RoleUser,
	api.MethodAdminPing:     models.RoleAdmin,
}

func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	required, protected := protectedMethods[info.FullMethod]
	if !protected {
		return handler(ctx, req)
	}

	token := bearerToken(ctx)
	if token == "" {
		return nil, toStatus(common.ErrMissingToken)
	}

	claims, err := s.accounts.Authenticate(ctx, token)
	if err != nil {
		s.logger.Debug(ctx, "rejected session token", "method", info.FullMethod, "error", err)
		return nil, toStatus(err)
	}

	held, err := models.ParseRole(claims.Role)
	if err != nil {
		s.logger.Warn(ctx, "session token carries unknown role", "method", info.FullMethod, "error", err)
		return nil, toStatus(common.ErrPermissionDenied)
	}
	if held < required {
		return nil, toStatus(common.ErrPermissionDenied)
	}

	return handler(context.WithValue(ctx, claimsKey, claims), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

// bearerToken extracts the token from "authorization: Bearer <token>".
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		if len(v) > len(common.BearerPrefix) && strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
			return strings.TrimSpace(v[len(common.BearerPrefix):])
		}
	}
	return ""
}

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}
