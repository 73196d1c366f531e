package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "foundationauth.v1.AccountService"

// Full method names, as seen by interceptors.
const (
	MethodRegister           = "/" + ServiceName + "/Register"
	MethodLogin              = "/" + ServiceName + "/Login"
	MethodVerifyEmail        = "/" + ServiceName + "/VerifyEmail"
	MethodResendVerification = "/" + ServiceName + "/ResendVerification"
	MethodGetProfile         = "/" + ServiceName + "/GetProfile"
	MethodUpdateProfile      = "/" + ServiceName + "/UpdateProfile"
	MethodDeleteAccount      = "/" + ServiceName + "/DeleteAccount"
	MethodAdminPing          = "/" + ServiceName + "/AdminPing"
)

// AccountServiceServer is implemented by the server side of the service.
type AccountServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*VerifyEmailResponse, error)
	ResendVerification(context.Context, *ResendVerificationRequest) (*ResendVerificationResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*DeleteAccountResponse, error)
	AdminPing(context.Context, *AdminPingRequest) (*AdminPingResponse, error)
}

// RegisterAccountServiceServer attaches srv to a gRPC server.
func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountServiceDesc, srv)
}

// AccountServiceDesc describes the service the way protoc-gen-go-grpc would.
var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, AccountServiceServer.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, AccountServiceServer.Login)},
		{MethodName: "VerifyEmail", Handler: unary(MethodVerifyEmail, AccountServiceServer.VerifyEmail)},
		{MethodName: "ResendVerification", Handler: unary(MethodResendVerification, AccountServiceServer.ResendVerification)},
		{MethodName: "GetProfile", Handler: unary(MethodGetProfile, AccountServiceServer.GetProfile)},
		{MethodName: "UpdateProfile", Handler: unary(MethodUpdateProfile, AccountServiceServer.UpdateProfile)},
		{MethodName: "DeleteAccount", Handler: unary(MethodDeleteAccount, AccountServiceServer.DeleteAccount)},
		{MethodName: "AdminPing", Handler: unary(MethodAdminPing, AccountServiceServer.AdminPing)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foundationauth/v1/account.json",
}

// unary adapts a typed method to grpc.MethodHandler, decoding the request and
// running the interceptor chain.
func unary[Req, Resp any](fullMethod string, call func(AccountServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
