package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      *api.Client
	health      healthpb.HealthClient

	mu           sync.RWMutex
	sessionToken string
	expiresAt    time.Time
}

func withSessionToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) sessionTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withSessionToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. Every call is bounded by
// timeout when it is positive. Extra dial options are appended to the
// defaults (insecure transport, session token interceptor).
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.sessionTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewClient(conn)
	c.health = healthpb.NewHealthClient(conn)
	return c, nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

func (s *GRPCClient) setToken(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionToken = token
	s.expiresAt = expiresAt
}

// IsLoggedIn reports whether a session token is held and has not expired
// according to the expiry the server returned with it.
func (s *GRPCClient) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken != "" && time.Now().Before(s.expiresAt)
}

func (s *GRPCClient) Register(ctx context.Context, username, email string, password []byte) (*api.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Register(ctx, &api.RegisterRequest{Username: username, Email: email, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.User, nil
}

func (s *GRPCClient) Login(ctx context.Context, email string, password []byte) (*api.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, &api.LoginRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}

	s.setToken(resp.Token, resp.ExpiresAt)
	return resp.User, nil
}

// Logout forgets the session token. Tokens are stateless on the server, so
// nothing is sent.
func (s *GRPCClient) Logout() {
	s.setToken("", time.Time{})
}

func (s *GRPCClient) VerifyEmail(ctx context.Context, token string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.VerifyEmail(ctx, &api.VerifyEmailRequest{Token: token})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Message, nil
}

func (s *GRPCClient) ResendVerification(ctx context.Context, email string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ResendVerification(ctx, &api.ResendVerificationRequest{Email: email})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Message, nil
}

func (s *GRPCClient) Profile(ctx context.Context) (*api.User, error) {
	if s.token() == "" {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetProfile(ctx, &api.GetProfileRequest{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.User, nil
}

// UpdateProfile sends only the non-empty fields.
func (s *GRPCClient) UpdateProfile(ctx context.Context, username, email string, newPassword []byte) (*api.User, error) {
	if s.token() == "" {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.UpdateProfile(ctx, &api.UpdateProfileRequest{
		Username:    username,
		Email:       email,
		NewPassword: string(newPassword),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.User, nil
}

// DeleteAccount removes the caller's account and logs out on success.
func (s *GRPCClient) DeleteAccount(ctx context.Context) error {
	if s.token() == "" {
		return ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.DeleteAccount(ctx, &api.DeleteAccountRequest{}); err != nil {
		return mapError(err)
	}
	s.Logout()
	return nil
}

func (s *GRPCClient) AdminPing(ctx context.Context) (string, error) {
	if s.token() == "" {
		return "", ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.AdminPing(ctx, &api.AdminPingRequest{})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Message, nil
}

// Ping asks the standard health service whether the account service is
// serving.
func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}
