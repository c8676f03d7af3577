package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/rpcapi"
	"github.com/dmitrijs2005/authservice/internal/server/guard"
	"github.com/dmitrijs2005/authservice/internal/server/services"
	"github.com/dmitrijs2005/authservice/internal/server/validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func clientInfo(ctx context.Context) services.ClientInfo {
	var c services.ClientInfo
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		c.IP = p.Addr.String()
		if host, _, err := net.SplitHostPort(c.IP); err == nil {
			c.IP = host
		}
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		c.UserAgent = firstMD(md, "user-agent")
	}
	return c
}

// toStatus maps service errors to gRPC codes. msg401 is the generic message
// for Unauthenticated.
func toStatus(err error, msg401 string) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return status.Error(codes.InvalidArgument, verrs.Error())
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, msg401)
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func tokenResponse(p *services.TokenPair) *rpcapi.TokenResponse {
	return &rpcapi.TokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *rpcapi.SignUpRequest) (*rpcapi.TokenResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if err := validation.SignUp(req.Name, email, req.Password); err != nil {
		return nil, toStatus(err, "")
	}

	pair, err := s.sessions.SignUp(ctx, req.Name, email, req.Password, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err, "Invalid credentials")
	}
	return tokenResponse(pair), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *rpcapi.SignInRequest) (*rpcapi.TokenResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if err := validation.SignIn(email, req.Password); err != nil {
		return nil, toStatus(err, "")
	}

	pair, err := s.sessions.SignIn(ctx, email, req.Password, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err, "Invalid credentials")
	}
	return tokenResponse(pair), nil
}

// Refresh falls back to the refresh_token metadata when the request is empty.
func (s *GRPCServer) Refresh(ctx context.Context, req *rpcapi.RefreshRequest) (*rpcapi.TokenResponse, error) {
	token := req.RefreshToken
	if token == "" {
		token = credentialsFrom(ctx).RefreshToken
	}

	pair, err := s.sessions.RefreshAccess(ctx, token, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err, "Invalid refresh token")
	}
	return tokenResponse(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *rpcapi.LogoutRequest) (*rpcapi.LogoutResponse, error) {
	s.sessions.Logout(ctx, credentialsFrom(ctx).RefreshToken)
	return &rpcapi.LogoutResponse{Message: "Logged out successfully"}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *rpcapi.MeRequest) (*rpcapi.UserResponse, error) {
	payload, ok := guard.PayloadFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	u, err := s.sessions.GetUser(ctx, payload.UserID)
	if err != nil {
		return nil, toStatus(err, "unauthorized")
	}
	return &rpcapi.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}, nil
}
