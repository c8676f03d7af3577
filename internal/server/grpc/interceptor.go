package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/rpcapi"
	"github.com/dmitrijs2005/authservice/internal/server/guard"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var protectedMethods = map[string]bool{
	rpcapi.LogoutFullMethod: true,
	rpcapi.MeFullMethod:     true,
}

func firstMD(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func credentialsFrom(ctx context.Context) guard.Credentials {
	md, _ := metadata.FromIncomingContext(ctx)
	return guard.Credentials{
		AccessToken:  firstMD(md, common.AccessTokenHeaderName),
		RefreshToken: firstMD(md, common.RefreshTokenHeaderName),
	}
}

// authInterceptor guards the protected methods. A re-issued access token is
// sent back in the access_token response header.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	res, err := s.guard.Authorize(ctx, credentialsFrom(ctx))
	if err != nil {
		var rej *guard.RejectedError
		if errors.As(err, &rej) {
			return nil, status.Error(codes.Unauthenticated, rej.Reason)
		}
		s.logger.Error(ctx, "authorization failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	if res.Reissued() {
		if err := grpc.SetHeader(ctx, metadata.Pairs(common.AccessTokenHeaderName, res.ReissuedAccessToken)); err != nil {
			s.logger.Warn(ctx, "cannot send reissued access token", "error", err)
		}
	}

	return handler(guard.WithResult(ctx, res), req)
}
