// Package grpc exposes the account service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/logging"
	"github.com/dmitrijs2005/foundationauth/internal/server/auth"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
	"github.com/dmitrijs2005/foundationauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Accounts is the part of services.AccountService the transport needs.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserView, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	GetProfile(ctx context.Context, id string) (*models.UserView, error)
	UpdateProfile(ctx context.Context, id string, in services.UpdateProfileInput) (*models.UserView, error)
	DeleteAccount(ctx context.Context, id string) error
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address  string
	accounts Accounts
	logger   logging.Logger
}

var _ api.AccountServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(address string, l logging.Logger, accounts Accounts) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
	}
}

// newServer builds the grpc.Server with the auth interceptor, the account
// service and the standard health service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))

	api.RegisterAccountServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
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

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
