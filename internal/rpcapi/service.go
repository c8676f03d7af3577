package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "authservice.AuthService"

// Full method names, as seen by interceptors.
const (
	SignUpFullMethod  = "/" + ServiceName + "/SignUp"
	SignInFullMethod  = "/" + ServiceName + "/SignIn"
	RefreshFullMethod = "/" + ServiceName + "/Refresh"
	LogoutFullMethod  = "/" + ServiceName + "/Logout"
	MeFullMethod      = "/" + ServiceName + "/Me"
)

// AuthServiceServer is implemented by the server.
type AuthServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*TokenResponse, error)
	SignIn(context.Context, *SignInRequest) (*TokenResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Me(context.Context, *MeRequest) (*UserResponse, error)
}

// unary adapts a typed method to grpc's untyped handler signature.
func unary[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes AuthService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unary(SignUpFullMethod, AuthServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unary(SignInFullMethod, AuthServiceServer.SignIn)},
		{MethodName: "Refresh", Handler: unary(RefreshFullMethod, AuthServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unary(LogoutFullMethod, AuthServiceServer.Logout)},
		{MethodName: "Me", Handler: unary(MeFullMethod, AuthServiceServer.Me)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authservice.json",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// AuthServiceClient is the client stub.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[SignUpRequest, TokenResponse](ctx, c.cc, SignUpFullMethod, in, opts)
}

func (c *AuthServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[SignInRequest, TokenResponse](ctx, c.cc, SignInFullMethod, in, opts)
}

func (c *AuthServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[RefreshRequest, TokenResponse](ctx, c.cc, RefreshFullMethod, in, opts)
}

func (c *AuthServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutRequest, LogoutResponse](ctx, c.cc, LogoutFullMethod, in, opts)
}

func (c *AuthServiceClient) Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[MeRequest, UserResponse](ctx, c.cc, MeFullMethod, in, opts)
}
