// Package grpc serves AuthService over gRPC with the JSON codec from
// internal/rpcapi. Logout and Me run behind the same guard as the HTTP API.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/rpcapi"
	"github.com/dmitrijs2005/authservice/internal/server/guard"
	"github.com/dmitrijs2005/authservice/internal/server/models"
	"github.com/dmitrijs2005/authservice/internal/server/services"
	"google.golang.org/grpc"
)

// Sessions is the part of services.SessionService the handlers use.
type Sessions interface {
	SignUp(ctx context.Context, name, email, password string, c services.ClientInfo) (*services.TokenPair, error)
	SignIn(ctx context.Context, email, password string, c services.ClientInfo) (*services.TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string, c services.ClientInfo) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, c guard.Credentials) (*guard.Result, error)
}

type GRPCServer struct {
	address  string
	sessions Sessions
	guard    Authorizer
	logger   logging.Logger
}

var _ rpcapi.AuthServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, s Sessions, g Authorizer) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: s,
		guard:    g,
	}
}

// NewServer builds the grpc.Server with the auth interceptor and the
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(s.authInterceptor)}, opts...)
	srv := grpc.NewServer(opts...)
	rpcapi.RegisterAuthServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
